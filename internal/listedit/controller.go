package listedit

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ehr/praxis/internal/platform/apiclient"
	"github.com/ehr/praxis/internal/platform/notification"
	"github.com/ehr/praxis/internal/validation"
	"github.com/ehr/praxis/pkg/pagination"
)

// State is where a list page currently rests.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateLoadError
	StateDialogOpen
	StateSubmitting
	StateConfirmingDelete
	StateFatal
	StateClosed
)

var stateNames = map[State]string{
	StateIdle:             "idle",
	StateLoading:          "loading",
	StateLoaded:           "loaded",
	StateLoadError:        "load_error",
	StateDialogOpen:       "dialog_open",
	StateSubmitting:       "submitting",
	StateConfirmingDelete: "confirming_delete",
	StateFatal:            "fatal",
	StateClosed:           "closed",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", int(s))
}

const (
	opLoad   = "load"
	opOpen   = "open"
	opDelete = "delete"
	opAction = "action"
	opUpload = "upload"
)

// Dialog is the view of an open create/edit dialog.
type Dialog struct {
	Mode        Mode
	Draft       Record
	FieldErrors []apiclient.FieldError
	SubmitError string
	Conflicts   []validation.Conflict
}

// View is a snapshot of a controller, safe to read without locking.
type View struct {
	Resource      string
	State         State
	Items         []Record
	Meta          pagination.Meta
	PageIndex     int
	PageSize      int
	Filters       map[string]string
	Loading       bool
	LoadError     error
	Dialog        *Dialog
	PendingDelete string
	Busy          []string
	References    map[string][]Record
	Fatal         error
}

// Option configures a Controller.
type Option func(*Controller)

// WithControllerNotifier sets the notification sink.
func WithControllerNotifier(n notification.Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// WithOnAuthError sets the hook called on 401/403 instead of notifying.
func WithOnAuthError(fn func(error)) Option {
	return func(c *Controller) { c.onAuth = fn }
}

// WithPageSize sets the initial page size.
func WithPageSize(n int) Option {
	return func(c *Controller) { c.pageSize = n }
}

// WithRouteToken supplies the token required by route-scoped resources.
func WithRouteToken(token string) Option {
	return func(c *Controller) { c.routeToken = token }
}

// WithFilters sets the initial query filters.
func WithFilters(filters map[string]string) Option {
	return func(c *Controller) {
		for k, v := range filters {
			if v != "" {
				c.filters[k] = v
			}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// Controller drives one list page. It is safe for concurrent use; requests
// run outside the lock, so independent operations may overlap.
type Controller struct {
	res      *Resource
	backend  Backend
	loader   *Loader
	disp     *Dispatcher
	form     *Form
	notifier notification.Notifier
	onAuth   func(error)
	logger   zerolog.Logger

	mu            sync.Mutex
	state         State
	pageIndex     int
	pageSize      int
	filters       map[string]string
	routeToken    string
	items         []Record
	meta          pagination.Meta
	loadErr       error
	fieldErrs     []apiclient.FieldError
	submitErr     string
	conflicts     []validation.Conflict
	pendingDelete string
	busy          map[string]bool
	loadSeq       uint64
	loadsInFlight int
	refs          map[string][]Record
	fatal         error
}

// NewController creates a controller for res in the Idle state. A
// route-scoped resource without a token starts in the Fatal state.
func NewController(res *Resource, backend Backend, opts ...Option) *Controller {
	c := &Controller{
		res:      res,
		backend:  backend,
		loader:   NewLoader(backend, res),
		form:     NewForm(res),
		logger:   zerolog.Nop(),
		pageSize: pagination.DefaultLimit,
		filters:  map[string]string{},
		busy:     map[string]bool{},
	}
	for _, o := range opts {
		o(c)
	}
	if c.pageSize <= 0 {
		c.pageSize = pagination.DefaultLimit
	}
	c.logger = c.logger.With().Str("resource", res.Path).Logger()
	c.disp = NewDispatcher(backend, res,
		WithNotifier(c.notifier),
		WithAuthHandler(c.onAuth),
		WithDispatcherLogger(c.logger),
	)
	if res.RouteTokenParam != "" && c.routeToken == "" {
		c.state = StateFatal
		c.fatal = ErrMissingRouteToken
	}
	return c
}

// Resource returns the descriptor the controller was built for.
func (c *Controller) Resource() *Resource { return c.res }

// usable must be called with c.mu held.
func (c *Controller) usable() error {
	switch c.state {
	case StateClosed:
		return ErrClosed
	case StateFatal:
		return c.fatal
	}
	return nil
}

// resting returns the state a page falls back to when no dialog or delete
// prompt is active. Must be called with c.mu held.
func (c *Controller) resting() State {
	switch {
	case c.loadsInFlight > 0 && c.items == nil:
		return StateLoading
	case c.loadErr != nil:
		return StateLoadError
	case c.items != nil:
		return StateLoaded
	}
	return StateIdle
}

// idle reports whether no dialog or delete prompt is active.
func (c *Controller) idle() bool {
	switch c.state {
	case StateIdle, StateLoading, StateLoaded, StateLoadError:
		return true
	}
	return false
}

func (c *Controller) query() pagination.Query {
	filters := maps.Clone(c.filters)
	if c.res.RouteTokenParam != "" {
		filters[c.res.RouteTokenParam] = c.routeToken
	}
	return pagination.FromIndex(c.pageIndex, c.pageSize, filters)
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load fetches the current page. On failure the previous items stay
// visible and the error is recorded in View.LoadError.
func (c *Controller) Load(ctx context.Context) error {
	return c.load(ctx, true)
}

// Refresh is the explicit user retry. It behaves like Load.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.load(ctx, true)
}

// reload is the unguarded load used after mutations and navigation. A
// newer load supersedes it.
func (c *Controller) reload(ctx context.Context) error {
	return c.load(ctx, false)
}

func (c *Controller) load(ctx context.Context, guarded bool) error {
	c.mu.Lock()
	if err := c.usable(); err != nil {
		c.mu.Unlock()
		return err
	}
	if guarded {
		if c.busy[opLoad] {
			c.mu.Unlock()
			return ErrBusy
		}
		c.busy[opLoad] = true
	}
	c.loadSeq++
	seq := c.loadSeq
	c.loadsInFlight++
	q := c.query()
	if c.idle() {
		c.state = StateLoading
	}
	c.mu.Unlock()

	c.logger.Debug().Int("page", q.Page).Int("limit", q.Limit).Msg("loading")
	page, err := c.loader.Load(ctx, q)

	c.mu.Lock()
	c.loadsInFlight--
	if guarded {
		delete(c.busy, opLoad)
	}
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	if seq != c.loadSeq {
		c.logger.Debug().Uint64("seq", seq).Msg("stale load result dropped")
		if c.state == StateLoading {
			c.state = c.resting()
		}
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.loadErr = err
		if c.idle() {
			c.state = StateLoadError
		}
		c.mu.Unlock()
		report(err, fmt.Sprintf("Could not load %s", c.res.Path), c.notifier, c.onAuth, c.logger)
		return err
	}
	c.items = page.Items
	if c.items == nil {
		c.items = []Record{}
	}
	c.meta = page.Meta
	c.loadErr = nil
	if c.idle() {
		c.state = StateLoaded
	}
	c.mu.Unlock()
	return nil
}

// LoadWithReferences loads the primary list and every reference collection
// concurrently. Results arrive in any order; the first error is returned.
func (c *Controller) LoadWithReferences(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.Load(gctx) })
	for _, path := range c.res.References {
		g.Go(func() error {
			page, err := c.backend.List(gctx, path, pagination.Query{Page: 1, Limit: pagination.MaxLimit})
			if err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.state == StateClosed {
				return nil
			}
			if c.refs == nil {
				c.refs = map[string][]Record{}
			}
			c.refs[path] = page.Items
			return nil
		})
	}
	return g.Wait()
}

// SetPage moves to the 0-indexed page and reloads. The wire page is
// index+1.
func (c *Controller) SetPage(ctx context.Context, index int) error {
	if index < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPage, index)
	}
	c.mu.Lock()
	if err := c.usable(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.pageIndex = index
	c.mu.Unlock()
	return c.reload(ctx)
}

// SetPageSize changes the page size, returns to the first page and
// reloads. The size is sent as given; capping it is the server's call.
func (c *Controller) SetPageSize(ctx context.Context, size int) error {
	if size <= 0 {
		return fmt.Errorf("%w: page size %d", ErrInvalidPage, size)
	}
	c.mu.Lock()
	if err := c.usable(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.pageSize = size
	c.pageIndex = 0
	c.mu.Unlock()
	return c.reload(ctx)
}

// SetFilter sets (or, for an empty value, removes) a filter, returns to
// the first page and reloads.
func (c *Controller) SetFilter(ctx context.Context, key, value string) error {
	c.mu.Lock()
	if err := c.usable(); err != nil {
		c.mu.Unlock()
		return err
	}
	if value == "" {
		delete(c.filters, key)
	} else {
		c.filters[key] = value
	}
	c.pageIndex = 0
	c.mu.Unlock()
	return c.reload(ctx)
}

// ClearFilters removes every filter and reloads.
func (c *Controller) ClearFilters(ctx context.Context) error {
	c.mu.Lock()
	if err := c.usable(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.filters = map[string]string{}
	c.pageIndex = 0
	c.mu.Unlock()
	return c.reload(ctx)
}

// ---------------------------------------------------------------------------
// Dialog
// ---------------------------------------------------------------------------

// OpenCreate opens the dialog with the resource template.
func (c *Controller) OpenCreate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.canOpen(); err != nil {
		return err
	}
	c.form.Open(nil)
	c.enterDialog()
	return nil
}

// OpenEdit opens the dialog seeded with the record id. The loaded page is
// searched first; otherwise the record is fetched.
func (c *Controller) OpenEdit(ctx context.Context, id string) error {
	c.mu.Lock()
	if err := c.canOpen(); err != nil {
		c.mu.Unlock()
		return err
	}
	if rec := c.find(id); rec != nil {
		c.form.Open(rec)
		c.enterDialog()
		c.mu.Unlock()
		return nil
	}
	if c.busy[opOpen] {
		c.mu.Unlock()
		return ErrBusy
	}
	c.busy[opOpen] = true
	c.mu.Unlock()

	rec, err := c.loader.Get(ctx, id)

	c.mu.Lock()
	delete(c.busy, opOpen)
	if c.state == StateClosed {
		c.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		c.mu.Unlock()
		report(err, fmt.Sprintf("Could not open %s %s", c.res.Title, id), c.notifier, c.onAuth, c.logger)
		return err
	}
	if rec == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s %s", ErrNotFound, c.res.Path, id)
	}
	if err := c.canOpen(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.form.Open(rec)
	c.enterDialog()
	c.mu.Unlock()
	return nil
}

func (c *Controller) canOpen() error {
	if err := c.usable(); err != nil {
		return err
	}
	if c.res.ReadOnly {
		return ErrReadOnly
	}
	if !c.idle() {
		return ErrDialogOpen
	}
	return nil
}

func (c *Controller) enterDialog() {
	c.state = StateDialogOpen
	c.fieldErrs = nil
	c.submitErr = ""
	c.conflicts = nil
}

func (c *Controller) find(id string) Record {
	for _, rec := range c.items {
		if c.res.RecordID(rec) == id {
			return rec
		}
	}
	return nil
}

// SetField changes one draft value. Nothing is validated until Submit.
func (c *Controller) SetField(name string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.usable(); err != nil {
		return err
	}
	if c.state == StateSubmitting {
		return ErrBusy
	}
	if c.state != StateDialogOpen {
		return ErrNoDialog
	}
	return c.form.SetField(name, value)
}

// CheckDuplicates compares the draft against the loaded page on the
// resource's unique fields. The result is advisory and also shown in
// View.Dialog.
func (c *Controller) CheckDuplicates() validation.ConflictResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := c.duplicates()
	c.conflicts = res.Conflicts
	return res
}

func (c *Controller) duplicates() validation.ConflictResult {
	if !c.form.IsOpen() || len(c.res.UniqueFields) == 0 {
		return validation.ConflictResult{}
	}
	return validation.CheckUnique(c.items, c.form.Draft(), c.res.ID(), c.res.UniqueFields...)
}

// Submit validates the draft and sends it. On success the dialog closes
// and the list reloads once. On failure the dialog stays open with the
// server message and field errors.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if err := c.usable(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.state != StateDialogOpen {
		c.mu.Unlock()
		return ErrNoDialog
	}
	if err := c.form.Validate(); err != nil {
		c.fieldErrs = FieldErrorsOf(err)
		c.submitErr = ""
		c.conflicts = nil
		c.mu.Unlock()
		return err
	}
	if dup := c.duplicates(); !dup.OK() {
		c.conflicts = dup.Conflicts
		c.submitErr = ""
		verr := &ValidationError{}
		for _, cf := range dup.Conflicts {
			verr.Fields = append(verr.Fields, apiclient.FieldError{Field: cf.Field, Message: "already exists"})
		}
		c.fieldErrs = verr.Fields
		c.mu.Unlock()
		return verr
	}
	draft := c.form.Draft()
	mode := c.form.Mode()
	c.state = StateSubmitting
	c.mu.Unlock()

	_, err := c.disp.Submit(ctx, draft, mode)

	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return err
	}
	if err != nil {
		c.state = StateDialogOpen
		c.submitErr = apiclient.MessageOf(err)
		if c.submitErr == "" {
			c.submitErr = err.Error()
		}
		c.fieldErrs = apiclient.FieldErrorsOf(err)
		c.mu.Unlock()
		return err
	}
	c.form.Reset()
	c.fieldErrs = nil
	c.submitErr = ""
	c.conflicts = nil
	c.state = c.resting()
	c.mu.Unlock()

	// The mutation succeeded; a failed reload is recorded in the view.
	_ = c.reload(ctx)
	return nil
}

// CancelDialog discards the draft.
func (c *Controller) CancelDialog() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateSubmitting {
		return ErrBusy
	}
	if c.state != StateDialogOpen {
		return ErrNoDialog
	}
	c.form.Reset()
	c.fieldErrs = nil
	c.submitErr = ""
	c.conflicts = nil
	c.state = c.resting()
	return nil
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

// RequestDelete enters ConfirmingDelete for id. Nothing is sent.
func (c *Controller) RequestDelete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.usable(); err != nil {
		return err
	}
	if c.res.ReadOnly {
		return ErrReadOnly
	}
	if !c.idle() {
		return ErrDialogOpen
	}
	c.pendingDelete = id
	c.state = StateConfirmingDelete
	return nil
}

// CancelDelete leaves ConfirmingDelete without sending anything.
func (c *Controller) CancelDelete() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConfirmingDelete {
		return ErrNothingToConfirm
	}
	c.pendingDelete = ""
	c.state = c.resting()
	return nil
}

// ConfirmDelete sends the DELETE requested by RequestDelete, then reloads.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	if err := c.usable(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.state != StateConfirmingDelete {
		c.mu.Unlock()
		return ErrNothingToConfirm
	}
	if c.busy[opDelete] {
		c.mu.Unlock()
		return ErrBusy
	}
	c.busy[opDelete] = true
	id := c.pendingDelete
	c.mu.Unlock()

	_, err := c.disp.Remove(ctx, id, confirmed{})

	c.mu.Lock()
	delete(c.busy, opDelete)
	if c.state == StateClosed {
		c.mu.Unlock()
		return err
	}
	c.pendingDelete = ""
	c.state = c.resting()
	c.mu.Unlock()
	if err != nil {
		return err
	}
	_ = c.reload(ctx)
	return nil
}

// Delete runs the whole delete flow: RequestDelete, ask confirmer, then
// ConfirmDelete or CancelDelete. It reports whether a DELETE was sent.
func (c *Controller) Delete(ctx context.Context, id string, confirmer Confirmer) (bool, error) {
	if confirmer == nil {
		return false, ErrNoConfirmer
	}
	if err := c.RequestDelete(id); err != nil {
		return false, err
	}
	ok, err := confirmer.Confirm(ctx, fmt.Sprintf("Delete %s %s?", c.res.Title, id))
	if err != nil || !ok {
		_ = c.CancelDelete()
		return false, err
	}
	if err := c.ConfirmDelete(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// ---------------------------------------------------------------------------
// Actions and uploads
// ---------------------------------------------------------------------------

// RunAction posts a resource action for id and reloads on success. A
// declined confirmation returns (nil, nil) and sends nothing.
func (c *Controller) RunAction(ctx context.Context, id, action string, confirmer Confirmer) (Record, error) {
	a, ok := c.res.Action(action)
	if !ok {
		return nil, &UnknownActionError{Resource: c.res.Path, Action: action}
	}
	if a.Confirm {
		if confirmer == nil {
			return nil, ErrNoConfirmer
		}
		ok, err := confirmer.Confirm(ctx, c.disp.actionPrompt(a, id))
		if err != nil || !ok {
			return nil, err
		}
	}
	if err := c.begin(opAction); err != nil {
		return nil, err
	}
	rec, err := c.disp.Act(ctx, id, action, nil, confirmed{})
	if closed := c.end(opAction); closed {
		return rec, err
	}
	if err != nil {
		return nil, err
	}
	_ = c.reload(ctx)
	return rec, nil
}

// Upload sends a file to the resource upload endpoint and reloads.
func (c *Controller) Upload(ctx context.Context, file File, fields map[string]string) (Record, error) {
	if err := c.begin(opUpload); err != nil {
		return nil, err
	}
	rec, err := c.disp.Upload(ctx, file, fields)
	if closed := c.end(opUpload); closed {
		return rec, err
	}
	if err != nil {
		return nil, err
	}
	_ = c.reload(ctx)
	return rec, nil
}

func (c *Controller) begin(op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.usable(); err != nil {
		return err
	}
	if c.busy[op] {
		return ErrBusy
	}
	c.busy[op] = true
	return nil
}

// end clears op and reports whether the controller was closed meanwhile.
func (c *Controller) end(op string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.busy, op)
	return c.state == StateClosed
}

// ---------------------------------------------------------------------------
// View and lifecycle
// ---------------------------------------------------------------------------

// View returns a snapshot of the page.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Resource:      c.res.Path,
		State:         c.state,
		Meta:          c.meta,
		PageIndex:     c.pageIndex,
		PageSize:      c.pageSize,
		Filters:       maps.Clone(c.filters),
		Loading:       c.loadsInFlight > 0,
		LoadError:     c.loadErr,
		PendingDelete: c.pendingDelete,
		Fatal:         c.fatal,
	}
	if c.items != nil {
		v.Items = make([]Record, len(c.items))
		for i, rec := range c.items {
			v.Items[i] = CloneRecord(rec)
		}
	}
	for op := range c.busy {
		v.Busy = append(v.Busy, op)
	}
	if len(c.refs) > 0 {
		v.References = make(map[string][]Record, len(c.refs))
		for k, items := range c.refs {
			v.References[k] = items
		}
	}
	if c.state == StateDialogOpen || c.state == StateSubmitting {
		v.Dialog = &Dialog{
			Mode:        c.form.Mode(),
			Draft:       c.form.Draft(),
			FieldErrors: append([]apiclient.FieldError(nil), c.fieldErrs...),
			SubmitError: c.submitErr,
			Conflicts:   append([]validation.Conflict(nil), c.conflicts...),
		}
	}
	return v
}

// Close detaches the page. Responses that arrive afterwards are ignored
// and every further operation returns ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateClosed
	c.form.Reset()
	c.pendingDelete = ""
}
