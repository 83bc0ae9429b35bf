package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/netip"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/provider/models"
	"github.com/thegreenwebfoundation/admin-portal-sub000/pkg/platform/sentinel"
	txcontext "github.com/thegreenwebfoundation/admin-portal-sub000/pkg/platform/tx"
)

// Postgres persists provider data in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed provider store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (s *Postgres) CreateProvider(ctx context.Context, provider *models.Provider) error {
	if provider.ID == uuid.Nil {
		provider.ID = uuid.New()
	}
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO providers (id, name, website, archived, show_on_website, authorized_users)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, provider.ID, provider.Name, provider.Website, provider.Archived, provider.ShowOnWebsite,
		pq.Array(provider.AuthorizedUsers))
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert provider: %w", err)
	}
	return nil
}

func (s *Postgres) GetProvider(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, name, website, archived, show_on_website, authorized_users
		FROM providers WHERE id = $1
	`, id)
	return scanProvider(row)
}

func (s *Postgres) FindProviderByDomain(ctx context.Context, domain string) (*models.Provider, error) {
	// Websites are stored bare or with a scheme; match both spellings.
	row := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, name, website, archived, show_on_website, authorized_users
		FROM providers
		WHERE NOT archived
		  AND lower(website) IN (lower($1), 'https://' || lower($1), 'http://' || lower($1))
		LIMIT 1
	`, domain)
	return scanProvider(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProvider(row rowScanner) (*models.Provider, error) {
	var provider models.Provider
	var users pq.StringArray
	err := row.Scan(&provider.ID, &provider.Name, &provider.Website,
		&provider.Archived, &provider.ShowOnWebsite, &users)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan provider: %w", err)
	}
	provider.AuthorizedUsers = users
	return &provider, nil
}

func (s *Postgres) ArchiveProvider(ctx context.Context, id uuid.UUID) error {
	return txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		tx, _ := txcontext.From(ctx)
		res, err := tx.ExecContext(ctx, `UPDATE providers SET archived = TRUE WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("archive provider: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sentinel.ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, `UPDATE ip_ranges SET active = FALSE WHERE provider_id = $1`, id); err != nil {
			return fmt.Errorf("deactivate ip ranges: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE asns SET active = FALSE WHERE provider_id = $1`, id); err != nil {
			return fmt.Errorf("deactivate asns: %w", err)
		}
		return nil
	})
}

func (s *Postgres) AddIPRange(ctx context.Context, r *models.IPRange) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Start.Is4() != r.End.Is4() {
		return sentinel.ErrConflict
	}
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO ip_ranges (id, provider_id, ip_start, ip_end, active)
		VALUES ($1, $2, $3::inet, $4::inet, $5)
	`, r.ID, r.ProviderID, r.Start.String(), r.End.String(), r.Active)
	if err != nil {
		return fmt.Errorf("insert ip range: %w", err)
	}
	return nil
}

func (s *Postgres) AddASN(ctx context.Context, a *models.ASN) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO asns (id, provider_id, number, active)
		VALUES ($1, $2, $3, $4)
	`, a.ID, a.ProviderID, a.Number, a.Active)
	if err != nil {
		return fmt.Errorf("insert asn: %w", err)
	}
	return nil
}

func (s *Postgres) ActiveRangesFor(ctx context.Context, providerID uuid.UUID) ([]models.IPRange, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, provider_id, host(ip_start), host(ip_end), active
		FROM ip_ranges WHERE provider_id = $1 AND active
	`, providerID)
	if err != nil {
		return nil, fmt.Errorf("query ip ranges: %w", err)
	}
	defer rows.Close()

	var out []models.IPRange
	for rows.Next() {
		r, err := scanIPRange(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanIPRange(rows *sql.Rows) (models.IPRange, error) {
	var r models.IPRange
	var start, end string
	if err := rows.Scan(&r.ID, &r.ProviderID, &start, &end, &r.Active); err != nil {
		return r, fmt.Errorf("scan ip range: %w", err)
	}
	var err error
	if r.Start, err = netip.ParseAddr(start); err != nil {
		return r, fmt.Errorf("parse range start: %w", err)
	}
	if r.End, err = netip.ParseAddr(end); err != nil {
		return r, fmt.Errorf("parse range end: %w", err)
	}
	return r, nil
}

func (s *Postgres) ActiveASNsFor(ctx context.Context, providerID uuid.UUID) ([]models.ASN, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, provider_id, number, active
		FROM asns WHERE provider_id = $1 AND active
	`, providerID)
	if err != nil {
		return nil, fmt.Errorf("query asns: %w", err)
	}
	defer rows.Close()

	var out []models.ASN
	for rows.Next() {
		var a models.ASN
		if err := rows.Scan(&a.ID, &a.ProviderID, &a.Number, &a.Active); err != nil {
			return nil, fmt.Errorf("scan asn: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Postgres) ProviderForIP(ctx context.Context, ip netip.Addr) (*models.Provider, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		SELECT p.id, p.name, p.website, p.archived, p.show_on_website, p.authorized_users
		FROM providers p
		JOIN ip_ranges r ON r.provider_id = p.id
		WHERE NOT p.archived AND r.active
		  AND $1::inet >= r.ip_start AND $1::inet <= r.ip_end
		LIMIT 1
	`, ip.String())
	return scanProvider(row)
}

func (s *Postgres) ProviderForASN(ctx context.Context, asn uint32) (*models.Provider, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		SELECT p.id, p.name, p.website, p.archived, p.show_on_website, p.authorized_users
		FROM providers p
		JOIN asns a ON a.provider_id = p.id
		WHERE NOT p.archived AND a.active AND a.number = $1
		LIMIT 1
	`, asn)
	return scanProvider(row)
}

func (s *Postgres) CreateDocument(ctx context.Context, doc *models.SupportingDocument) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO supporting_documents (id, provider_id, title, url, public, valid_from, valid_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, doc.ID, doc.ProviderID, doc.Title, doc.URL, doc.Public, doc.ValidFrom, doc.ValidTo)
	if err != nil {
		return fmt.Errorf("insert supporting document: %w", err)
	}
	return nil
}

func (s *Postgres) DocumentsFor(ctx context.Context, providerID uuid.UUID) ([]models.SupportingDocument, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, provider_id, title, url, public, valid_from, valid_to
		FROM supporting_documents WHERE provider_id = $1
	`, providerID)
	if err != nil {
		return nil, fmt.Errorf("query supporting documents: %w", err)
	}
	defer rows.Close()

	var out []models.SupportingDocument
	for rows.Next() {
		var doc models.SupportingDocument
		if err := rows.Scan(&doc.ID, &doc.ProviderID, &doc.Title, &doc.URL,
			&doc.Public, &doc.ValidFrom, &doc.ValidTo); err != nil {
			return nil, fmt.Errorf("scan supporting document: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (s *Postgres) FindDocumentByURL(ctx context.Context, providerID uuid.UUID, url string) (*models.SupportingDocument, error) {
	var doc models.SupportingDocument
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, provider_id, title, url, public, valid_from, valid_to
		FROM supporting_documents WHERE provider_id = $1 AND url = $2
		LIMIT 1
	`, providerID, url).Scan(&doc.ID, &doc.ProviderID, &doc.Title, &doc.URL,
		&doc.Public, &doc.ValidFrom, &doc.ValidTo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find supporting document: %w", err)
	}
	return &doc, nil
}

func (s *Postgres) GetSecret(ctx context.Context, providerID uuid.UUID) (*models.SharedSecret, error) {
	var secret models.SharedSecret
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT provider_id, body, created_at FROM shared_secrets WHERE provider_id = $1
	`, providerID).Scan(&secret.ProviderID, &secret.Body, &secret.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get shared secret: %w", err)
	}
	return &secret, nil
}

func (s *Postgres) DeleteSecret(ctx context.Context, providerID uuid.UUID) error {
	_, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM shared_secrets WHERE provider_id = $1`, providerID)
	if err != nil {
		return fmt.Errorf("delete shared secret: %w", err)
	}
	return nil
}

func (s *Postgres) CreateSecret(ctx context.Context, secret *models.SharedSecret) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO shared_secrets (provider_id, body, created_at)
		VALUES ($1, $2, $3)
	`, secret.ProviderID, secret.Body, secret.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert shared secret: %w", err)
	}
	return nil
}

func (s *Postgres) CreateDomainHash(ctx context.Context, hash *models.DomainHash) error {
	if hash.ID == uuid.Nil {
		hash.ID = uuid.New()
	}
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO domain_hashes (id, provider_id, domain, hash, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, hash.ID, hash.ProviderID, hash.Domain, hash.Hash, hash.CreatedBy, hash.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert domain hash: %w", err)
	}
	return nil
}

func (s *Postgres) GetDomainHash(ctx context.Context, providerID uuid.UUID, domain string) (*models.DomainHash, error) {
	var hash models.DomainHash
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, provider_id, domain, hash, created_by, created_at
		FROM domain_hashes WHERE provider_id = $1 AND domain = $2
	`, providerID, domain).Scan(&hash.ID, &hash.ProviderID, &hash.Domain,
		&hash.Hash, &hash.CreatedBy, &hash.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get domain hash: %w", err)
	}
	return &hash, nil
}

var _ Store = (*Postgres)(nil)
