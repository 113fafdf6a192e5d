package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/AdamBeresnev/op-tourney-bot/internal/bracket"
	"github.com/AdamBeresnev/op-tourney-bot/internal/httputil"
	"github.com/AdamBeresnev/op-tourney-bot/internal/middleware"
	"github.com/AdamBeresnev/op-tourney-bot/internal/service"
	users "github.com/AdamBeresnev/op-tourney-bot/internal/user"
	"github.com/AdamBeresnev/op-tourney-bot/internal/utils"
	"github.com/AdamBeresnev/op-tourney-bot/views"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// newRouter exposes one route per chat command or button. The chat adapter calls them
// with form values and identifies the acting user through headers.
func newRouter(svc *service.TournamentService, adapterToken string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdapter(adapterToken))

		// Read only, no acting user needed
		r.Get("/tournaments/{id}", func(w http.ResponseWriter, r *http.Request) {
			t, err := svc.GetTournament(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				httputil.FromError(w, "Failed to load tournament", err)
				return
			}
			writeJSON(w, http.StatusOK, redactTournament(t))
		})

		r.Get("/tournaments/{id}/bracket", func(w http.ResponseWriter, r *http.Request) {
			t, err := svc.GetTournament(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				httputil.FromError(w, "Failed to load tournament", err)
				return
			}
			if err := views.Render(w, r, views.BracketPage(t)); err != nil {
				slog.Error("failed to render bracket", "tournament_id", t.ID, "error", err)
			}
		})

		r.Get("/channels/{channelID}/tournament", func(w http.ResponseWriter, r *http.Request) {
			t, err := svc.FindByHostChannel(r.Context(), chi.URLParam(r, "channelID"))
			if err != nil {
				httputil.FromError(w, "Failed to look up channel", err)
				return
			}
			writeJSON(w, http.StatusOK, redactTournament(t))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.WithActor)

			r.Post("/tournaments", func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					httputil.BadRequest(w, "Invalid form data", err)
					return
				}
				settings, err := parseSettings(r)
				if err != nil {
					httputil.BadRequest(w, err.Error(), err)
					return
				}

				t, err := svc.CreateTournament(r.Context(), actor(r), settings)
				if err != nil {
					httputil.FromError(w, "Failed to create tournament", err)
					return
				}
				writeJSON(w, http.StatusCreated, redactTournament(t))
			})

			r.Delete("/tournaments/{id}", func(w http.ResponseWriter, r *http.Request) {
				if err := svc.DeleteTournament(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
					httputil.FromError(w, "Failed to delete tournament", err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})

			r.Post("/tournaments/{id}/signup", func(w http.ResponseWriter, r *http.Request) {
				in, err := parseSignUp(r)
				if err != nil {
					httputil.BadRequest(w, err.Error(), err)
					return
				}

				team, err := svc.SignUp(r.Context(), actor(r), chi.URLParam(r, "id"), in)
				if err != nil {
					httputil.FromError(w, "Failed to sign up", err)
					return
				}
				writeJSON(w, http.StatusCreated, redactTeam(team))
			})

			r.Post("/tournaments/{id}/join", func(w http.ResponseWriter, r *http.Request) {
				in, err := parseSignUp(r)
				if err != nil {
					httputil.BadRequest(w, err.Error(), err)
					return
				}

				team, err := svc.JoinTeam(r.Context(), actor(r), chi.URLParam(r, "id"), in.TeamName, r.Form.Get("password"), in)
				if err != nil {
					httputil.FromError(w, "Failed to join team", err)
					return
				}
				writeJSON(w, http.StatusOK, redactTeam(team))
			})

			r.Post("/tournaments/{id}/leave", func(w http.ResponseWriter, r *http.Request) {
				if err := svc.LeaveTeam(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
					httputil.FromError(w, "Failed to leave team", err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})

			r.Post("/tournaments/{id}/teams/{teamID}/approve", func(w http.ResponseWriter, r *http.Request) {
				team, err := svc.ApproveTeam(r.Context(), actor(r), chi.URLParam(r, "id"), bracket.TeamID(chi.URLParam(r, "teamID")))
				if err != nil {
					httputil.FromError(w, "Failed to approve team", err)
					return
				}
				writeJSON(w, http.StatusOK, redactTeam(team))
			})

			r.Post("/tournaments/{id}/teams/{teamID}/deny", func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					httputil.BadRequest(w, "Invalid form data", err)
					return
				}

				team, err := svc.DenyTeam(r.Context(), actor(r), chi.URLParam(r, "id"), bracket.TeamID(chi.URLParam(r, "teamID")), r.Form.Get("reason"))
				if err != nil {
					httputil.FromError(w, "Failed to deny team", err)
					return
				}
				writeJSON(w, http.StatusOK, redactTeam(team))
			})

			r.Post("/tournaments/{id}/start", func(w http.ResponseWriter, r *http.Request) {
				t, err := svc.StartTournament(r.Context(), actor(r), chi.URLParam(r, "id"))
				if err != nil {
					httputil.FromError(w, "Failed to start tournament", err)
					return
				}
				writeJSON(w, http.StatusOK, redactTournament(t))
			})

			r.Post("/tournaments/{id}/reminders", func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					httputil.BadRequest(w, "Invalid form data", err)
					return
				}
				fireTime, err := time.Parse(time.RFC3339, r.Form.Get("fire_time"))
				if err != nil {
					httputil.BadRequest(w, "fire_time must be an RFC 3339 timestamp", err)
					return
				}

				if err := svc.AddReminder(r.Context(), actor(r), chi.URLParam(r, "id"), fireTime, r.Form.Get("message")); err != nil {
					httputil.FromError(w, "Failed to add reminder", err)
					return
				}
				w.WriteHeader(http.StatusCreated)
			})

			r.Post("/matches/{matchID}/checkin", func(w http.ResponseWriter, r *http.Request) {
				m, err := svc.CheckIn(r.Context(), actor(r), bracket.MatchID(chi.URLParam(r, "matchID")))
				if err != nil {
					httputil.FromError(w, "Failed to check in", err)
					return
				}
				writeJSON(w, http.StatusOK, redactMatch(m))
			})

			r.Post("/matches/{matchID}/vote", func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					httputil.BadRequest(w, "Invalid form data", err)
					return
				}

				outcome, err := svc.RecordVote(r.Context(), actor(r), bracket.MatchID(chi.URLParam(r, "matchID")), bracket.TeamID(r.Form.Get("team_id")))
				if err != nil {
					httputil.FromError(w, "Failed to record vote", err)
					return
				}
				writeJSON(w, http.StatusOK, redactOutcome(outcome))
			})

			r.Post("/matches/{matchID}/advance", func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					httputil.BadRequest(w, "Invalid form data", err)
					return
				}

				m, err := svc.ForceAdvance(r.Context(), actor(r), bracket.MatchID(chi.URLParam(r, "matchID")), bracket.TeamID(r.Form.Get("team_id")))
				if err != nil {
					httputil.FromError(w, "Failed to advance match", err)
					return
				}
				writeJSON(w, http.StatusOK, redactMatch(m))
			})
		})
	})

	return r
}

func actor(r *http.Request) users.Actor {
	a, _ := middleware.GetActor(r.Context())
	return a
}

func parseSettings(r *http.Request) (bracket.Settings, error) {
	format, err := bracket.ParseFormat(r.Form.Get("format"))
	if err != nil {
		return bracket.Settings{}, err
	}

	teamSize, err := strconv.Atoi(r.Form.Get("team_size"))
	if err != nil {
		return bracket.Settings{}, fmt.Errorf("team_size must be a number")
	}

	maxTeams, err := utils.IntOrNil(r.Form.Get("max_teams"))
	if err != nil {
		return bracket.Settings{}, fmt.Errorf("max_teams must be a number")
	}

	deadlineDays := 0
	if v := strings.TrimSpace(r.Form.Get("deadline_days")); v != "" {
		if deadlineDays, err = strconv.Atoi(v); err != nil {
			return bracket.Settings{}, fmt.Errorf("deadline_days must be a number")
		}
	}

	return bracket.Settings{
		Name:          r.Form.Get("name"),
		Format:        format,
		TeamSize:      teamSize,
		MaxTeams:      maxTeams,
		DeadlineDays:  deadlineDays,
		PrizeInfo:     utils.StringOrNil(strings.TrimSpace(r.Form.Get("prize_info"))),
		HostChannelID: r.Form.Get("host_channel_id"),
	}, nil
}

func parseSignUp(r *http.Request) (service.SignUpInput, error) {
	if err := r.ParseForm(); err != nil {
		return service.SignUpInput{}, fmt.Errorf("invalid form data")
	}

	current, err := strconv.Atoi(r.Form.Get("current_mmr"))
	if err != nil {
		return service.SignUpInput{}, fmt.Errorf("current_mmr must be a number")
	}
	peak, err := strconv.Atoi(r.Form.Get("peak_mmr"))
	if err != nil {
		return service.SignUpInput{}, fmt.Errorf("peak_mmr must be a number")
	}

	return service.SignUpInput{
		TeamName:   r.Form.Get("team_name"),
		Password:   utils.StringOrNil(r.Form.Get("password")),
		GameHandle: r.Form.Get("game_handle"),
		CurrentMMR: current,
		PeakMMR:    peak,
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
