package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"outreach.app/courier/core/db"
	"outreach.app/courier/internal/model"
)

const contactColumns = `id, profile_url, full_name, first_name, last_name, email, phone, company, title,
	address, in_campaign, source, transcript, state_label, follow_up_date, responded, response,
	response_at, reminded_at, version, created_at, updated_at`

const uniqueViolation = "23505"

type contactStore struct {
	db db.DBTX
}

func newContactStore(q db.DBTX) ContactStore {
	return &contactStore{db: q}
}

func (s *contactStore) GetByID(ctx context.Context, id int64) (*model.Contact, error) {
	row := s.db.QueryRow(ctx, `SELECT `+contactColumns+` FROM prospects WHERE id = $1`, id)
	c, err := scanContact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *contactStore) Find(ctx context.Context, filter ContactFilter) ([]model.Contact, error) {
	if len(filter.ProfileURLs) == 0 {
		return nil, nil
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+contactColumns+` FROM prospects WHERE profile_url = ANY($1) ORDER BY created_at, id`,
		filter.ProfileURLs)
	if err != nil {
		return nil, err
	}
	return collectContacts(rows)
}

func (s *contactStore) Create(ctx context.Context, contact *model.Contact) error {
	transcript, err := marshalTranscript(contact.Transcript)
	if err != nil {
		return err
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO prospects (
			id, profile_url, full_name, first_name, last_name, email, phone, company, title,
			address, in_campaign, source, transcript, state_label, follow_up_date, responded,
			response, response_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING `+contactColumns,
		contact.ID, contact.ProfileURL, contact.FullName, contact.FirstName, contact.LastName,
		contact.Email, contact.Phone, contact.Company, contact.Title, contact.Address,
		contact.InCampaign, contact.Source, transcript, labelParam(contact.State),
		contact.FollowUpDate, contact.Responded, contact.Response, contact.ResponseAt,
	)
	created, err := scanContact(row)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: profile url %s already exists", ErrConflict, contact.ProfileURL)
		}
		return err
	}
	*contact = *created
	return nil
}

func (s *contactStore) Update(ctx context.Context, id int64, update ContactUpdate) (*model.Contact, error) {
	query, args, err := buildUpdate(id, update)
	if err != nil {
		return nil, err
	}

	updated, err := scanContact(s.db.QueryRow(ctx, query, args...))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// Distinguish a missing row from a lost version check.
	if _, getErr := s.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("%w: contact %d is no longer at version %d", ErrConflict, id, update.ExpectedVersion)
}

// buildUpdate renders a single conditional UPDATE. Right-hand sides see the pre-update
// row, so the reminder reset compares against the old follow-up date.
func buildUpdate(id int64, u ContactUpdate) (string, []any, error) {
	var (
		sets []string
		args = []any{id, u.ExpectedVersion}
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	keepUnlessEmpty := func(column, value string) {
		if value != "" {
			sets = append(sets, fmt.Sprintf("%s = %s", column, arg(value)))
		}
	}

	if p := u.Profile; p != nil {
		keepUnlessEmpty("full_name", p.FullName)
		keepUnlessEmpty("first_name", p.FirstName)
		keepUnlessEmpty("last_name", p.LastName)
		keepUnlessEmpty("email", p.Email)
		keepUnlessEmpty("phone", p.Phone)
		keepUnlessEmpty("company", p.Company)
		keepUnlessEmpty("title", p.Title)
		keepUnlessEmpty("address", p.Address)
	}
	if u.InCampaign != nil {
		sets = append(sets, "in_campaign = "+arg(*u.InCampaign))
	}
	if u.Transcript != nil {
		raw, err := marshalTranscript(u.Transcript)
		if err != nil {
			return "", nil, err
		}
		sets = append(sets, "transcript = "+arg(raw))
	}
	if u.State != nil {
		sets = append(sets, "state_label = "+arg(string(*u.State)))
	}
	switch {
	case u.ClearFollowUp:
		sets = append(sets, "follow_up_date = NULL", "reminded_at = NULL")
	case u.FollowUpDate != nil:
		p := arg(*u.FollowUpDate)
		sets = append(sets,
			fmt.Sprintf("reminded_at = CASE WHEN follow_up_date IS DISTINCT FROM %s::date THEN NULL ELSE reminded_at END", p),
			fmt.Sprintf("follow_up_date = %s::date", p),
		)
	}
	if u.Responded != nil {
		sets = append(sets, "responded = "+arg(*u.Responded))
	}
	if u.Response != nil {
		sets = append(sets, "response = "+arg(*u.Response))
	}
	if u.ResponseAt != nil {
		sets = append(sets, "response_at = "+arg(*u.ResponseAt))
	}

	sets = append(sets, "version = version + 1", "updated_at = now()")

	query := fmt.Sprintf(`UPDATE prospects SET %s WHERE id = $1 AND version = $2 RETURNING %s`,
		strings.Join(sets, ", "), contactColumns)
	return query, args, nil
}

func (s *contactStore) ListFollowUps(ctx context.Context, filter FollowUpFilter) ([]model.Contact, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	query := `SELECT ` + contactColumns + ` FROM prospects
		WHERE follow_up_date IS NOT NULL AND follow_up_date <= $1::date`
	if filter.PendingOnly {
		query += ` AND reminded_at IS NULL`
	}
	query += ` ORDER BY follow_up_date, id LIMIT $2`

	rows, err := s.db.Query(ctx, query, filter.OnOrBefore, limit)
	if err != nil {
		return nil, err
	}
	return collectContacts(rows)
}

func (s *contactStore) MarkReminded(ctx context.Context, id int64, at time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE prospects
		SET reminded_at = $2, version = version + 1, updated_at = now()
		WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectContacts(rows pgx.Rows) ([]model.Contact, error) {
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return contacts, nil
}

func scanContact(row pgx.Row) (*model.Contact, error) {
	var (
		c          model.Contact
		transcript []byte
		label      *string
	)
	err := row.Scan(
		&c.ID, &c.ProfileURL, &c.FullName, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.Company, &c.Title, &c.Address, &c.InCampaign, &c.Source, &transcript, &label,
		&c.FollowUpDate, &c.Responded, &c.Response, &c.ResponseAt, &c.RemindedAt, &c.Version,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(transcript) > 0 {
		if err := json.Unmarshal(transcript, &c.Transcript); err != nil {
			return nil, fmt.Errorf("decoding transcript for contact %d: %w", c.ID, err)
		}
	}
	if label != nil {
		l := model.StateLabel(*label)
		c.State = &l
	}
	return &c, nil
}

func marshalTranscript(t model.Transcript) ([]byte, error) {
	if t == nil {
		t = model.Transcript{}
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encoding transcript: %w", err)
	}
	return raw, nil
}

func labelParam(l *model.StateLabel) *string {
	if l == nil {
		return nil
	}
	s := string(*l)
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
