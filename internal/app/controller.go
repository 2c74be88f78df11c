// Package app is the single owner of the archive state. Transports call into
// the Controller; it checks capabilities before touching the collection.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"earsip/internal/archive"
	"earsip/internal/attachment"
	"earsip/internal/auth"
	"earsip/internal/backup"
	"earsip/internal/domain"
	"earsip/internal/logging"
	"earsip/internal/services"
)

var (
	ErrForbidden = errors.New("operation requires an administrator")
	ErrNotFound  = errors.New("letter not found")
	ErrNoFile    = errors.New("letter has no attachment")
	// ErrConfirmationRequired is returned by an unconfirmed restore of a valid backup.
	ErrConfirmationRequired = errors.New("restore overwrites the current archive and must be confirmed")
)

// Summarizer fills in the summary of new letters.
type Summarizer interface {
	Summarize(ctx context.Context, subject, counterparty string) string
}

type Controller struct {
	letters    *archive.Collection
	summarizer Summarizer
	encoder    *attachment.Encoder
	reports    *services.ReportService
	policy     auth.Policy
	pageSize   int
	now        func() time.Time
	logger     zerolog.Logger
}

type Options struct {
	Summarizer Summarizer
	Encoder    *attachment.Encoder
	Reports    *services.ReportService
	Policy     auth.Policy
	PageSize   int
}

func NewController(letters *archive.Collection, opts Options) *Controller {
	if opts.Encoder == nil {
		opts.Encoder = attachment.NewEncoder(attachment.DefaultMaxBytes)
	}
	if opts.Reports == nil {
		opts.Reports = services.NewReportService()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 5
	}
	return &Controller{
		letters:    letters,
		summarizer: opts.Summarizer,
		encoder:    opts.Encoder,
		reports:    opts.Reports,
		policy:     opts.Policy,
		pageSize:   opts.PageSize,
		now:        time.Now,
		logger:     logging.Component("archive"),
	}
}

func (c *Controller) PageSize() int {
	return c.pageSize
}

// List filters the collection and returns the requested page.
func (c *Controller) List(q archive.Query, page int) archive.Page {
	return archive.Paginate(archive.Filter(c.letters.Snapshot(), q), c.pageSize, page)
}

// View renders a stateful list view.
func (c *Controller) View(state *archive.ViewState) archive.Page {
	return state.View(c.letters.Snapshot(), c.pageSize)
}

func (c *Controller) Stats() domain.Stats {
	return archive.ComputeStats(c.letters.Snapshot())
}

func (c *Controller) Recent(n int) []domain.Letter {
	return archive.Recent(c.letters.Snapshot(), n)
}

func (c *Controller) Get(id string) (domain.Letter, error) {
	l, ok := c.letters.Get(id)
	if !ok {
		return domain.Letter{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return l, nil
}

// NewDraft returns the form defaults for a letter opened from scope.
func (c *Controller) NewDraft(scope archive.Scope) domain.Draft {
	return domain.NewDraft(scope == archive.ScopeOutgoing, c.now())
}

// Create validates the draft, fetches the summary and only then inserts the
// letter, so it is stored with its summary in place.
func (c *Controller) Create(ctx context.Context, user domain.User, draft domain.Draft) (domain.Letter, error) {
	if err := c.authorize(user, auth.ActionCreate); err != nil {
		return domain.Letter{}, err
	}
	if err := c.validate(&draft); err != nil {
		return domain.Letter{}, err
	}

	summary := ""
	if c.summarizer != nil {
		summary = c.summarizer.Summarize(ctx, draft.Subject, draft.Counterparty)
	}

	letter := c.letters.Create(draft, summary)
	c.logger.Info().Str("id", letter.ID).Str("user", user.Username).Msg("letter created")
	return letter, nil
}

func (c *Controller) Update(user domain.User, id string, draft domain.Draft) (domain.Letter, error) {
	if err := c.authorize(user, auth.ActionUpdate); err != nil {
		return domain.Letter{}, err
	}
	if err := c.validate(&draft); err != nil {
		return domain.Letter{}, err
	}

	letter, ok := c.letters.Update(id, draft)
	if !ok {
		return domain.Letter{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	c.logger.Info().Str("id", id).Str("user", user.Username).Msg("letter updated")
	return letter, nil
}

// Delete removes the letter; an unknown id is not an error.
func (c *Controller) Delete(user domain.User, id string) error {
	if err := c.authorize(user, auth.ActionDelete); err != nil {
		return err
	}
	if c.letters.Delete(id) {
		c.logger.Info().Str("id", id).Str("user", user.Username).Msg("letter deleted")
	}
	return nil
}

// EncodeAttachment turns an uploaded file into attachment fields for a draft.
func (c *Controller) EncodeAttachment(ctx context.Context, fileName, declaredType string, size int64, r io.Reader) (domain.Attachment, error) {
	return c.encoder.Encode(ctx, fileName, declaredType, size, r)
}

func (c *Controller) MaxUploadBytes() int64 {
	return c.encoder.MaxBytes()
}

// AttachmentFile decodes the attachment of letter id for download.
func (c *Controller) AttachmentFile(id string) (name, mediaType string, data []byte, err error) {
	letter, err := c.Get(id)
	if err != nil {
		return "", "", nil, err
	}
	if !letter.HasAttachment() {
		return "", "", nil, fmt.Errorf("%w: %s", ErrNoFile, id)
	}
	mediaType, data, err = attachment.Decode(letter.FileData)
	if err != nil {
		return "", "", nil, err
	}
	return letter.FileName, mediaType, data, nil
}

// Backup returns the serialized collection.
func (c *Controller) Backup(user domain.User) ([]byte, error) {
	if err := c.authorize(user, auth.ActionBackup); err != nil {
		return nil, err
	}
	return backup.Marshal(c.letters.Snapshot())
}

// Restore parses data and, once confirmed, replaces the whole collection.
// It returns the number of records in the backup. On any error the
// collection is left untouched.
func (c *Controller) Restore(user domain.User, data []byte, confirmed bool) (int, error) {
	if err := c.authorize(user, auth.ActionRestore); err != nil {
		return 0, err
	}
	records, err := backup.Parse(data)
	if err != nil {
		c.logger.Warn().Err(err).Str("user", user.Username).Msg("restore rejected")
		return 0, err
	}
	if !confirmed {
		return len(records), ErrConfirmationRequired
	}

	c.letters.ReplaceAll(records)
	c.logger.Info().Int("letters", len(records)).Str("user", user.Username).Msg("archive restored")
	return len(records), nil
}

// Report renders the printable PDF for scope over the whole collection.
func (c *Controller) Report(w io.Writer, scope archive.Scope) error {
	return c.reports.Render(w, c.letters.Snapshot(), scope, c.now())
}

// validate runs the form checks and re-checks an attachment submitted as a data
// URL against the same rules as an upload.
func (c *Controller) validate(draft *domain.Draft) error {
	if err := draft.Validate(); err != nil {
		return err
	}
	if draft.Attachment != nil {
		if err := c.encoder.Verify(*draft.Attachment); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) authorize(user domain.User, action auth.Action) error {
	if !c.policy.Allows(user, action) {
		c.logger.Warn().Str("user", user.Username).Str("action", string(action)).Msg("action denied")
		return fmt.Errorf("%w: %s", ErrForbidden, action)
	}
	return nil
}
