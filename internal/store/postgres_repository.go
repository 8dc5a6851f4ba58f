/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains all the necessary SQL queries to interact with the database tables
 * for causes, donations, disbursements, transparency updates, and the audit log.
 *
 * Key invariants are enforced here rather than by convention:
 * - Cause status transitions are guarded UPDATEs; a cause can only be moved
 *   along the domain.AllowedCauseTransitions table.
 * - Donation settlement is a single database transaction that both flips the
 *   pending donation and applies an atomic increment to the cause totals, so
 *   concurrent gateway webhooks on the same cause serialize instead of losing
 *   updates, and a replayed webhook cannot double-count.
 * - A disbursement insert is refused when it would push the cause's disbursed
 *   total past its raised total.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - github.com/pressly/goose/v3: Embedded schema migrations, run at startup.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/ridwanullahh/careconnect-healthcare-sub002/internal/domain"
)

var (
	ErrUserNotFound              = errors.New("user not found")
	ErrCauseNotFound             = errors.New("cause not found")
	ErrDonationNotFound          = errors.New("donation not found")
	ErrUpdateNotFound            = errors.New("cause update not found")
	ErrInvalidCauseState         = errors.New("cause is not in a state that permits this operation")
	ErrDonationAlreadyFinalized  = errors.New("donation has already left the pending state")
	ErrDisbursementExceedsRaised = errors.New("disbursement would exceed the cause's raised amount")
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository and runs
// the embedded schema migrations.
func NewPostgresRepository(ctx context.Context, db *pgxpool.Pool) (*PostgresRepository, error) {
	r := &PostgresRepository{db: db}
	if err := r.runMigrations(ctx); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.db)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	return goose.UpContext(ctx, db, "migrations")
}

// --- Users ---

const userColumns = `id, full_name, email, role, verified`

// FindUserByID retrieves a user from the database by their ID.
func (r *PostgresRepository) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var user domain.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(&user.ID, &user.FullName, &user.Email, &user.Role, &user.Verified)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindUsersByRole lists every user carrying the given role. Used to fan
// verification requests out to the review team.
func (r *PostgresRepository) FindUsersByRole(ctx context.Context, role string) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY full_name`
	rows, err := r.db.Query(ctx, query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.FullName, &user.Email, &user.Role, &user.Verified); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// --- Causes ---

const causeColumns = `
	id, title, description, story, category,
	target_amount, raised_amount, currency,
	beneficiary_name, beneficiary_email, beneficiary_phone, beneficiary_address,
	beneficiary_verification, beneficiary_bank_name, beneficiary_bank_account,
	organizer_id, organizer_name, organizer_verified,
	status, start_date, end_date, verification_notes, verified_by, verified_at,
	documents, last_update_sent,
	allow_anonymous_donations, show_donation_amounts, in_kind_requests,
	donor_count, share_count, view_count,
	created_at, updated_at`

func scanCause(row pgx.Row) (*domain.Cause, error) {
	var c domain.Cause
	err := row.Scan(
		&c.ID, &c.Title, &c.Description, &c.Story, &c.Category,
		&c.TargetAmount, &c.RaisedAmount, &c.Currency,
		&c.Beneficiary.Name, &c.Beneficiary.Email, &c.Beneficiary.Phone, &c.Beneficiary.Address,
		&c.Beneficiary.VerificationStatus, &c.Beneficiary.BankName, &c.Beneficiary.BankAccountNumber,
		&c.OrganizerID, &c.OrganizerName, &c.OrganizerVerified,
		&c.Status, &c.StartDate, &c.EndDate, &c.VerificationNotes, &c.VerifiedBy, &c.VerifiedAt,
		&c.Documents, &c.LastUpdateSent,
		&c.AllowAnonymousDonations, &c.ShowDonationAmounts, &c.InKindRequests,
		&c.DonorCount, &c.ShareCount, &c.ViewCount,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCause persists a brand-new cause in the draft state.
func (r *PostgresRepository) CreateCause(ctx context.Context, cause *domain.Cause) error {
	query := `
		INSERT INTO causes (
			id, title, description, story, category,
			target_amount, raised_amount, currency,
			beneficiary_name, beneficiary_email, beneficiary_phone, beneficiary_address,
			beneficiary_verification, beneficiary_bank_name, beneficiary_bank_account,
			organizer_id, organizer_name, organizer_verified,
			status, start_date, end_date,
			allow_anonymous_donations, show_donation_amounts, in_kind_requests
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24
		)
		RETURNING created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		cause.ID, cause.Title, cause.Description, cause.Story, cause.Category,
		cause.TargetAmount, cause.RaisedAmount, cause.Currency,
		cause.Beneficiary.Name, cause.Beneficiary.Email, cause.Beneficiary.Phone, cause.Beneficiary.Address,
		cause.Beneficiary.VerificationStatus, cause.Beneficiary.BankName, cause.Beneficiary.BankAccountNumber,
		cause.OrganizerID, cause.OrganizerName, cause.OrganizerVerified,
		cause.Status, cause.StartDate, cause.EndDate,
		cause.AllowAnonymousDonations, cause.ShowDonationAmounts, cause.InKindRequests,
	).Scan(&cause.CreatedAt, &cause.UpdatedAt)
}

// FindCauseByID retrieves a cause by its ID.
func (r *PostgresRepository) FindCauseByID(ctx context.Context, causeID uuid.UUID) (*domain.Cause, error) {
	query := `SELECT ` + causeColumns + ` FROM causes WHERE id = $1`
	cause, err := scanCause(r.db.QueryRow(ctx, query, causeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCauseNotFound
		}
		return nil, err
	}
	return cause, nil
}

// ListCauses returns causes ordered newest first, optionally filtered by status.
func (r *PostgresRepository) ListCauses(ctx context.Context, status *domain.CauseStatus, limit, offset int) ([]domain.Cause, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := `SELECT ` + causeColumns + ` FROM causes`
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var causes []domain.Cause
	for rows.Next() {
		cause, err := scanCause(rows)
		if err != nil {
			return nil, err
		}
		causes = append(causes, *cause)
	}
	return causes, rows.Err()
}

// SubmitCauseForVerification moves a draft cause into review and attaches the
// supporting documents. The WHERE clause is the state-machine guard: a cause
// that is not in draft is left untouched.
func (r *PostgresRepository) SubmitCauseForVerification(ctx context.Context, causeID uuid.UUID, documents []string) (*domain.Cause, error) {
	query := `
		UPDATE causes
		SET status = $2, documents = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4
		RETURNING ` + causeColumns
	cause, err := scanCause(r.db.QueryRow(ctx, query, causeID, domain.CauseStatusPendingVerification, documents, domain.CauseStatusDraft))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.causeStateError(ctx, causeID)
		}
		return nil, err
	}
	return cause, nil
}

// ApplyVerificationDecision finalizes review of a submitted cause. Approval is
// the only path that can make a cause active.
func (r *PostgresRepository) ApplyVerificationDecision(ctx context.Context, causeID uuid.UUID, target domain.CauseStatus, beneficiary domain.VerificationStatus, notes string, verifierID uuid.UUID) (*domain.Cause, error) {
	query := `
		UPDATE causes
		SET status = $2,
			beneficiary_verification = $3,
			verification_notes = $4,
			verified_by = $5,
			verified_at = NOW(),
			updated_at = NOW()
		WHERE id = $1 AND status = $6
		RETURNING ` + causeColumns
	cause, err := scanCause(r.db.QueryRow(ctx, query, causeID, target, beneficiary, notes, verifierID, domain.CauseStatusPendingVerification))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.causeStateError(ctx, causeID)
		}
		return nil, err
	}
	return cause, nil
}

// TransitionCauseStatus applies an administrative transition (pause, resume,
// complete, suspend), allowing only moves present in the administrative
// transition table. Verification edges are not reachable here; approving a
// pending cause goes through ApplyVerificationDecision.
func (r *PostgresRepository) TransitionCauseStatus(ctx context.Context, causeID uuid.UUID, target domain.CauseStatus) (*domain.Cause, error) {
	var fromStates []string
	for from, tos := range domain.AdministrativeCauseTransitions {
		for _, to := range tos {
			if to == target {
				fromStates = append(fromStates, string(from))
			}
		}
	}
	if len(fromStates) == 0 {
		return nil, ErrInvalidCauseState
	}

	query := `
		UPDATE causes
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = ANY($3)
		RETURNING ` + causeColumns
	cause, err := scanCause(r.db.QueryRow(ctx, query, causeID, target, fromStates))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.causeStateError(ctx, causeID)
		}
		return nil, err
	}
	return cause, nil
}

// causeStateError distinguishes "no such cause" from "cause exists but is in
// the wrong state" after a guarded update matched zero rows.
func (r *PostgresRepository) causeStateError(ctx context.Context, causeID uuid.UUID) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM causes WHERE id = $1)`, causeID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrCauseNotFound
	}
	return ErrInvalidCauseState
}

// IncrementShareCount bumps the monotonic share counter.
func (r *PostgresRepository) IncrementShareCount(ctx context.Context, causeID uuid.UUID) error {
	return r.incrementCounter(ctx, causeID, "share_count")
}

// IncrementViewCount bumps the monotonic view counter.
func (r *PostgresRepository) IncrementViewCount(ctx context.Context, causeID uuid.UUID) error {
	return r.incrementCounter(ctx, causeID, "view_count")
}

func (r *PostgresRepository) incrementCounter(ctx context.Context, causeID uuid.UUID, column string) error {
	query := fmt.Sprintf(`UPDATE causes SET %s = %s + 1, updated_at = NOW() WHERE id = $1`, column, column)
	tag, err := r.db.Exec(ctx, query, causeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCauseNotFound
	}
	return nil
}

// --- Donations ---

const donationColumns = `id, cause_id, donor_name, donor_email, anonymous, amount, currency, message, payment_intent_id, payment_status, completed_at, created_at`

func scanDonation(row pgx.Row) (*domain.Donation, error) {
	var d domain.Donation
	err := row.Scan(
		&d.ID, &d.CauseID, &d.DonorName, &d.DonorEmail, &d.Anonymous,
		&d.Amount, &d.Currency, &d.Message, &d.PaymentIntentID,
		&d.PaymentStatus, &d.CompletedAt, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDonation persists a donation in the pending state.
func (r *PostgresRepository) CreateDonation(ctx context.Context, donation *domain.Donation) error {
	query := `
		INSERT INTO donations (id, cause_id, donor_name, donor_email, anonymous, amount, currency, message, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`
	return r.db.QueryRow(ctx, query,
		donation.ID, donation.CauseID, donation.DonorName, donation.DonorEmail, donation.Anonymous,
		donation.Amount, donation.Currency, donation.Message, donation.PaymentStatus,
	).Scan(&donation.CreatedAt)
}

// AttachPaymentIntent records the gateway intent id on a freshly created donation.
func (r *PostgresRepository) AttachPaymentIntent(ctx context.Context, donationID uuid.UUID, intentID string) error {
	tag, err := r.db.Exec(ctx, `UPDATE donations SET payment_intent_id = $2 WHERE id = $1`, donationID, intentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDonationNotFound
	}
	return nil
}

// FindDonationByID retrieves a donation by its ID.
func (r *PostgresRepository) FindDonationByID(ctx context.Context, donationID uuid.UUID) (*domain.Donation, error) {
	donation, err := scanDonation(r.db.QueryRow(ctx, `SELECT `+donationColumns+` FROM donations WHERE id = $1`, donationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDonationNotFound
		}
		return nil, err
	}
	return donation, nil
}

// FindDonationByPaymentIntentID resolves a donation from the gateway's intent id,
// which is what webhook payloads carry.
func (r *PostgresRepository) FindDonationByPaymentIntentID(ctx context.Context, intentID string) (*domain.Donation, error) {
	donation, err := scanDonation(r.db.QueryRow(ctx, `SELECT `+donationColumns+` FROM donations WHERE payment_intent_id = $1`, intentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDonationNotFound
		}
		return nil, err
	}
	return donation, nil
}

// ListDonationsByCause returns a cause's donations, newest first.
func (r *PostgresRepository) ListDonationsByCause(ctx context.Context, causeID uuid.UUID, limit, offset int) ([]domain.Donation, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM donations WHERE cause_id = $1 ORDER BY created_at DESC LIMIT %d OFFSET %d`, donationColumns, limit, offset)
	return r.queryDonations(ctx, query, causeID)
}

// ListCompletedDonations returns every settled donation for a cause, oldest
// first. The update fan-out derives its recipient set from this.
func (r *PostgresRepository) ListCompletedDonations(ctx context.Context, causeID uuid.UUID) ([]domain.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE cause_id = $1 AND payment_status = 'completed' ORDER BY completed_at`
	return r.queryDonations(ctx, query, causeID)
}

func (r *PostgresRepository) queryDonations(ctx context.Context, query string, args ...any) ([]domain.Donation, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var donations []domain.Donation
	for rows.Next() {
		donation, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		donations = append(donations, *donation)
	}
	return donations, rows.Err()
}

// SettleDonation finalizes a pending donation and folds its amount into the
// cause totals. Both writes happen in one database transaction:
//
//  1. a guarded UPDATE flips the donation out of pending; zero rows means the
//     donation is missing or a webhook replay, and nothing else runs;
//  2. an atomic increment updates raised_amount and donor_count RETURNING the
//     new totals, so two settlements racing on one cause each read their own
//     post-increment value instead of clobbering each other.
//
// Goal crossing is derived from the returned totals: exactly one settlement
// can satisfy newRaised >= target && newRaised-amount < target.
func (r *PostgresRepository) SettleDonation(ctx context.Context, donationID uuid.UUID) (*domain.SettlementResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	flip := `
		UPDATE donations
		SET payment_status = 'completed', completed_at = NOW()
		WHERE id = $1 AND payment_status = 'pending'
		RETURNING ` + donationColumns
	donation, err := scanDonation(tx.QueryRow(ctx, flip, donationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.donationFlipError(ctx, donationID)
		}
		return nil, err
	}

	var result domain.SettlementResult
	result.Donation = *donation

	increment := `
		UPDATE causes
		SET raised_amount = raised_amount + $2,
			donor_count = donor_count + 1,
			updated_at = NOW()
		WHERE id = $1
		RETURNING raised_amount, donor_count, target_amount`
	err = tx.QueryRow(ctx, increment, donation.CauseID, donation.Amount).Scan(
		&result.NewRaised, &result.NewDonorCount, &result.TargetAmount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCauseNotFound
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	result.CrossedGoal = result.TargetAmount > 0 &&
		result.NewRaised >= result.TargetAmount &&
		result.NewRaised-donation.Amount < result.TargetAmount
	return &result, nil
}

func (r *PostgresRepository) donationFlipError(ctx context.Context, donationID uuid.UUID) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM donations WHERE id = $1)`, donationID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrDonationNotFound
	}
	return ErrDonationAlreadyFinalized
}

// MarkDonationFailed flips a pending donation to failed without touching the
// cause totals.
func (r *PostgresRepository) MarkDonationFailed(ctx context.Context, donationID uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE donations SET payment_status = 'failed' WHERE id = $1 AND payment_status = 'pending'`,
		donationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.donationFlipError(ctx, donationID)
	}
	return nil
}

// --- Disbursements ---

const disbursementColumns = `id, cause_id, amount, purpose, recipient, disbursement_date, status, reference_number, receipt_url, approved_by, approved_at, created_at`

// InsertDisbursement appends one entry to a cause's transparency ledger. The
// cause row is locked for the duration of the transaction so two concurrent
// approvals cannot both read the same disbursed total and jointly overdraw
// the raised amount; with the lock held, the ledger sum includes every
// previously committed entry.
func (r *PostgresRepository) InsertDisbursement(ctx context.Context, entry *domain.DisbursementEntry) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var raised int64
	err = tx.QueryRow(ctx, `SELECT raised_amount FROM causes WHERE id = $1 FOR UPDATE`, entry.CauseID).Scan(&raised)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCauseNotFound
		}
		return err
	}

	var disbursed int64
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM disbursements WHERE cause_id = $1 AND status = 'disbursed'`,
		entry.CauseID).Scan(&disbursed)
	if err != nil {
		return err
	}

	if overdrawsRaised(disbursed, entry.Amount, raised) {
		return ErrDisbursementExceedsRaised
	}

	insert := `
		INSERT INTO disbursements (id, cause_id, amount, purpose, recipient, disbursement_date, status, reference_number, receipt_url, approved_by, approved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING approved_at, created_at`
	err = tx.QueryRow(ctx, insert,
		entry.ID, entry.CauseID, entry.Amount, entry.Purpose, entry.Recipient,
		entry.DisbursementDate, entry.Status, entry.ReferenceNumber, entry.ReceiptURL, entry.ApprovedBy,
	).Scan(&entry.ApprovedAt, &entry.CreatedAt)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// overdrawsRaised reports whether adding amount to the already disbursed total
// would push the ledger past the cause's raised total. Disbursing exactly up
// to the raised total is allowed.
func overdrawsRaised(disbursed, amount, raised int64) bool {
	return disbursed+amount > raised
}

// ListDisbursementsByCause returns the ledger for a cause in append order.
func (r *PostgresRepository) ListDisbursementsByCause(ctx context.Context, causeID uuid.UUID) ([]domain.DisbursementEntry, error) {
	query := `SELECT ` + disbursementColumns + ` FROM disbursements WHERE cause_id = $1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, causeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.DisbursementEntry
	for rows.Next() {
		var e domain.DisbursementEntry
		err := rows.Scan(
			&e.ID, &e.CauseID, &e.Amount, &e.Purpose, &e.Recipient,
			&e.DisbursementDate, &e.Status, &e.ReferenceNumber, &e.ReceiptURL,
			&e.ApprovedBy, &e.ApprovedAt, &e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SumDisbursed returns the total already paid out against a cause.
func (r *PostgresRepository) SumDisbursed(ctx context.Context, causeID uuid.UUID) (int64, error) {
	var sum int64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM disbursements WHERE cause_id = $1 AND status = 'disbursed'`,
		causeID).Scan(&sum)
	return sum, err
}

// --- Transparency updates ---

// CreateCauseUpdate persists a transparency post.
func (r *PostgresRepository) CreateCauseUpdate(ctx context.Context, update *domain.CauseUpdate) error {
	query := `
		INSERT INTO cause_updates (id, cause_id, title, content, images, author, is_milestone, sent_to_donors)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)
		RETURNING published_at`
	return r.db.QueryRow(ctx, query,
		update.ID, update.CauseID, update.Title, update.Content, update.Images, update.Author, update.IsMilestone,
	).Scan(&update.PublishedAt)
}

// MarkUpdateSentToDonors flips sent_to_donors after the fan-out attempt.
func (r *PostgresRepository) MarkUpdateSentToDonors(ctx context.Context, updateID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE cause_updates SET sent_to_donors = TRUE WHERE id = $1`, updateID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUpdateNotFound
	}
	return nil
}

// ListUpdatesByCause returns a cause's updates, newest first.
func (r *PostgresRepository) ListUpdatesByCause(ctx context.Context, causeID uuid.UUID) ([]domain.CauseUpdate, error) {
	query := `
		SELECT id, cause_id, title, content, images, author, is_milestone, published_at, sent_to_donors
		FROM cause_updates WHERE cause_id = $1 ORDER BY published_at DESC`
	rows, err := r.db.Query(ctx, query, causeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var updates []domain.CauseUpdate
	for rows.Next() {
		var u domain.CauseUpdate
		err := rows.Scan(&u.ID, &u.CauseID, &u.Title, &u.Content, &u.Images, &u.Author, &u.IsMilestone, &u.PublishedAt, &u.SentToDonors)
		if err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	return updates, rows.Err()
}

// HasUpdateSince reports whether any update was published on the cause at or
// after the given instant.
func (r *PostgresRepository) HasUpdateSince(ctx context.Context, causeID uuid.UUID, since time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM cause_updates WHERE cause_id = $1 AND published_at >= $2)`,
		causeID, since).Scan(&exists)
	return exists, err
}

// FindStaleActiveCauses returns active causes whose last_update_sent predates
// the cutoff (or was never stamped). The monthly batch job scans these.
func (r *PostgresRepository) FindStaleActiveCauses(ctx context.Context, olderThan time.Time) ([]domain.Cause, error) {
	query := `SELECT ` + causeColumns + ` FROM causes
		WHERE status = 'active' AND (last_update_sent IS NULL OR last_update_sent < $1)
		ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var causes []domain.Cause
	for rows.Next() {
		cause, err := scanCause(rows)
		if err != nil {
			return nil, err
		}
		causes = append(causes, *cause)
	}
	return causes, rows.Err()
}

// StampLastUpdateSent records when a cause last had an update delivered, so
// the batch job does not re-scan it every run.
func (r *PostgresRepository) StampLastUpdateSent(ctx context.Context, causeID uuid.UUID, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE causes SET last_update_sent = $2, updated_at = NOW() WHERE id = $1`, causeID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCauseNotFound
	}
	return nil
}

// --- Audit log ---

// InsertAuditEntry appends one row to the append-only audit log.
func (r *PostgresRepository) InsertAuditEntry(ctx context.Context, entry domain.AuditEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO audit_logs (id, user_id, action, target, data, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.UserID, entry.Action, entry.Target, entry.Data, entry.Timestamp)
	return err
}
