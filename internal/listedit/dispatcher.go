package listedit

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ehr/praxis/internal/platform/apiclient"
	"github.com/ehr/praxis/internal/platform/notification"
)

// Confirmer asks the user to approve a destructive step.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// confirmed is used once the controller's ConfirmingDelete state has been
// approved.
type confirmed struct{}

func (confirmed) Confirm(context.Context, string) (bool, error) { return true, nil }

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithNotifier sets where success and error messages go.
func WithNotifier(n notification.Notifier) DispatcherOption {
	return func(d *Dispatcher) { d.notifier = n }
}

// WithAuthHandler sets the hook called instead of notifying on 401/403.
func WithAuthHandler(fn func(error)) DispatcherOption {
	return func(d *Dispatcher) { d.onAuth = fn }
}

// WithAfterMutation sets a hook run after every successful mutation.
func WithAfterMutation(fn func(ctx context.Context)) DispatcherOption {
	return func(d *Dispatcher) { d.afterMutation = fn }
}

// WithDispatcherLogger sets the logger.
func WithDispatcherLogger(l zerolog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// Dispatcher persists drafts and runs deletes, actions and uploads. Every
// outcome is turned into a notification; auth failures go to the auth hook.
type Dispatcher struct {
	backend       Backend
	res           *Resource
	notifier      notification.Notifier
	onAuth        func(error)
	afterMutation func(ctx context.Context)
	logger        zerolog.Logger
}

// NewDispatcher creates a Dispatcher for res.
func NewDispatcher(backend Backend, res *Resource, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{backend: backend, res: res, logger: zerolog.Nop()}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Submit sends draft as POST /<resource> (create) or PUT /<resource>/<id>
// (update). The identifier and read-only fields are not sent.
func (d *Dispatcher) Submit(ctx context.Context, draft Record, mode Mode) (Record, error) {
	if d.res.ReadOnly {
		return nil, ErrReadOnly
	}
	payload := d.res.Payload(draft)

	var (
		rec  Record
		err  error
		verb string
	)
	if mode == ModeUpdate {
		id := d.res.RecordID(draft)
		if id == "" {
			return nil, fmt.Errorf("update %s: draft has no %s", d.res.Path, d.res.ID())
		}
		rec, err = d.backend.Update(ctx, d.res.Path, id, payload)
		verb = "updated"
	} else {
		rec, err = d.backend.Create(ctx, d.res.Path, payload)
		verb = "created"
	}
	if err != nil {
		d.fail(err, fmt.Sprintf("Could not save %s", d.res.Title))
		return nil, err
	}

	d.succeed(ctx, fmt.Sprintf("%s %s", d.res.Title, verb))
	return rec, nil
}

// Remove asks confirmer and, only on approval, sends DELETE
// /<resource>/<id>. It reports whether the delete was issued.
func (d *Dispatcher) Remove(ctx context.Context, id string, confirmer Confirmer) (bool, error) {
	if d.res.ReadOnly {
		return false, ErrReadOnly
	}
	if confirmer == nil {
		return false, ErrNoConfirmer
	}
	ok, err := confirmer.Confirm(ctx, fmt.Sprintf("Delete %s %s?", d.res.Title, id))
	if err != nil {
		return false, err
	}
	if !ok {
		d.logger.Debug().Str("resource", d.res.Path).Str("id", id).Msg("delete cancelled")
		return false, nil
	}

	if err := d.backend.Delete(ctx, d.res.Path, id); err != nil {
		d.fail(err, fmt.Sprintf("Could not delete %s", d.res.Title))
		return true, err
	}
	d.succeed(ctx, fmt.Sprintf("%s deleted", d.res.Title))
	return true, nil
}

// Act sends POST /<resource>/<id>/<action>. Actions marked Confirm need an
// approving confirmer; a declined confirmation returns (nil, nil).
func (d *Dispatcher) Act(ctx context.Context, id, name string, payload any, confirmer Confirmer) (Record, error) {
	action, ok := d.res.Action(name)
	if !ok {
		return nil, &UnknownActionError{Resource: d.res.Path, Action: name}
	}
	label := actionLabel(action)
	if action.Confirm {
		if confirmer == nil {
			return nil, ErrNoConfirmer
		}
		ok, err := confirmer.Confirm(ctx, d.actionPrompt(action, id))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
	}

	rec, err := d.backend.Action(ctx, d.res.Path, id, action.Name, payload)
	if err != nil {
		d.fail(err, fmt.Sprintf("Could not %s %s", label, d.res.Title))
		return nil, err
	}
	d.succeed(ctx, fmt.Sprintf("%s: %s done", d.res.Title, label))
	return rec, nil
}

func (d *Dispatcher) actionPrompt(a Action, id string) string {
	return fmt.Sprintf("%s %s %s?", actionLabel(a), d.res.Title, id)
}

func actionLabel(a Action) string {
	if a.Label != "" {
		return a.Label
	}
	return a.Name
}

// Upload sends file as multipart/form-data to /<resource>/upload.
func (d *Dispatcher) Upload(ctx context.Context, file File, fields map[string]string) (Record, error) {
	if !d.res.Upload {
		return nil, ErrUploadUnsupported
	}
	rec, err := d.backend.Upload(ctx, d.res.Path, apiclient.FilePart{
		Field:       "file",
		FileName:    file.Name,
		ContentType: file.ContentType,
		Content:     file.Content,
	}, fields)
	if err != nil {
		d.fail(err, fmt.Sprintf("Could not upload %s", file.Name))
		return nil, err
	}
	d.succeed(ctx, fmt.Sprintf("%s uploaded", file.Name))
	return rec, nil
}

func (d *Dispatcher) succeed(ctx context.Context, msg string) {
	d.notify(msg, notification.SeveritySuccess)
	if d.afterMutation != nil {
		d.afterMutation(ctx)
	}
}

func (d *Dispatcher) fail(err error, fallback string) {
	report(err, fallback, d.notifier, d.onAuth, d.logger)
}

func (d *Dispatcher) notify(msg string, sev notification.Severity) {
	if d.notifier != nil {
		d.notifier.Notify(msg, sev)
	}
}

// report turns err into a notification carrying the server message when
// there is one. Auth failures go to onAuth instead.
func report(err error, fallback string, n notification.Notifier, onAuth func(error), logger zerolog.Logger) {
	if apiclient.IsAuth(err) {
		logger.Warn().Err(err).Msg("authentication required")
		if onAuth != nil {
			onAuth(err)
		}
		return
	}
	logger.Debug().Err(err).Str("kind", apiclient.KindOf(err).String()).Msg(fallback)
	if n == nil {
		return
	}
	msg := apiclient.MessageOf(err)
	if msg == "" {
		msg = fallback
		if apiclient.IsNetwork(err) {
			msg = fallback + ": network error"
		}
	}
	n.Notify(msg, notification.SeverityError)
}
