package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/op-tourney-bot/internal/bracket"
	"github.com/jmoiron/sqlx"
)

// TournamentStore keeps one JSON snapshot per tournament in sqlite, plus a match index
// so a tournament can be found from any of its matches.
type TournamentStore struct {
	db *sqlx.DB
}

type tournamentRow struct {
	ID            string `db:"id"`
	Name          string `db:"name"`
	HostChannelID string `db:"host_channel_id"`
	IsActive      bool   `db:"is_active"`
	Data          string `db:"data"`
}

type matchRow struct {
	MatchID      string `db:"match_id"`
	TournamentID string `db:"tournament_id"`
}

const (
	upsertTournamentQuery = `
		INSERT INTO tournaments (id, name, host_channel_id, is_active, data)
		VALUES (:id, :name, :host_channel_id, :is_active, :data)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			host_channel_id = excluded.host_channel_id,
			is_active = excluded.is_active,
			data = excluded.data,
			updated_at = CURRENT_TIMESTAMP
	`
	insertMatchIndexQuery = `
		INSERT INTO tournament_matches (match_id, tournament_id)
		VALUES (:match_id, :tournament_id)
	`
	getTournamentDataQuery = "SELECT data FROM tournaments WHERE id = ?"
	listActiveQuery        = "SELECT data FROM tournaments WHERE is_active = 1 ORDER BY created_at ASC, id ASC"
	findByHostChannelQuery = "SELECT data FROM tournaments WHERE host_channel_id = ? ORDER BY is_active DESC, created_at DESC LIMIT 1"
	findByMatchQuery       = "SELECT t.data FROM tournaments t JOIN tournament_matches m ON m.tournament_id = t.id WHERE m.match_id = ?"
	deleteMatchIndexQuery  = "DELETE FROM tournament_matches WHERE tournament_id = ?"
	deleteTournamentQuery  = "DELETE FROM tournaments WHERE id = ?"
)

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

// Save overwrites the stored snapshot. Last writer wins.
func (s *TournamentStore) Save(ctx context.Context, t *bracket.Tournament) error {
	data, err := encodeTournament(t)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	row := tournamentRow{
		ID:            t.ID,
		Name:          t.Name,
		HostChannelID: t.HostChannelID,
		IsActive:      t.IsActive,
		Data:          data,
	}
	if _, err := tx.NamedExecContext(ctx, upsertTournamentQuery, row); err != nil {
		return fmt.Errorf("failed to save tournament %s: %w", t.ID, err)
	}

	if _, err := tx.ExecContext(ctx, deleteMatchIndexQuery, t.ID); err != nil {
		return fmt.Errorf("failed to clear match index: %w", err)
	}

	if len(t.Matches) > 0 {
		rows := make([]matchRow, 0, len(t.Matches))
		for id := range t.Matches {
			rows = append(rows, matchRow{MatchID: string(id), TournamentID: t.ID})
		}
		if _, err := tx.NamedExecContext(ctx, insertMatchIndexQuery, rows); err != nil {
			return fmt.Errorf("failed to index matches: %w", err)
		}
	}

	return tx.Commit()
}

func (s *TournamentStore) Load(ctx context.Context, id string) (*bracket.Tournament, error) {
	return s.getOne(ctx, getTournamentDataQuery, id)
}

func (s *TournamentStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deleteMatchIndexQuery, id); err != nil {
		return fmt.Errorf("failed to delete match index: %w", err)
	}

	res, err := tx.ExecContext(ctx, deleteTournamentQuery, id)
	if err != nil {
		return fmt.Errorf("failed to delete tournament %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

func (s *TournamentStore) ListActive(ctx context.Context) ([]*bracket.Tournament, error) {
	var rows []string
	if err := s.db.SelectContext(ctx, &rows, listActiveQuery); err != nil {
		return nil, fmt.Errorf("failed to list active tournaments: %w", err)
	}

	tournaments := make([]*bracket.Tournament, 0, len(rows))
	for _, data := range rows {
		t, err := decodeTournament(data)
		if err != nil {
			return nil, err
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, nil
}

func (s *TournamentStore) FindByHostChannel(ctx context.Context, channelID string) (*bracket.Tournament, error) {
	return s.getOne(ctx, findByHostChannelQuery, channelID)
}

func (s *TournamentStore) FindByMatch(ctx context.Context, matchID bracket.MatchID) (*bracket.Tournament, error) {
	return s.getOne(ctx, findByMatchQuery, string(matchID))
}

func (s *TournamentStore) getOne(ctx context.Context, query string, arg any) (*bracket.Tournament, error) {
	var data string
	err := s.db.GetContext(ctx, &data, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeTournament(data)
}
