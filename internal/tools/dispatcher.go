// Package tools exposes the generic record tools the assistant calls:
// list/describe for schema discovery, query/create/update for records, and
// a navigation signal for the attached UI. Every operation is parameterized
// by entity name and validated against the discovered schema graph; nothing
// in this package knows any entity by name.
//
// Errors the model can correct (misspelled names, unparseable values,
// ambiguous references) never escape as Go errors. They are rendered as
// guidance text so the conversation can continue.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deskclerk/deskclerk/internal/render"
	"github.com/deskclerk/deskclerk/internal/schema"
	"github.com/deskclerk/deskclerk/internal/store"
	"github.com/deskclerk/deskclerk/internal/view"
)

const (
	// DefaultLimit caps query result pages when the caller does not ask for
	// a specific positive limit.
	DefaultLimit = 25

	// candidateMax bounds how many display labels guidance errors list.
	candidateMax = 10
)

// EntityStore is the persistence surface the dispatcher drives. Every call
// is one isolated unit of work against a fresh transaction; *store.Store
// satisfies this.
type EntityStore interface {
	List(ctx context.Context, e *schema.EntityMetadata, conds []store.Condition, limit int) ([]map[string]any, error)
	Get(ctx context.Context, e *schema.EntityMetadata, id string) (map[string]any, error)
	Insert(ctx context.Context, e *schema.EntityMetadata, values map[string]any) (map[string]any, error)
	Update(ctx context.Context, e *schema.EntityMetadata, id string, values map[string]any) (map[string]any, error)
}

// ViewSource reports which entity and record the user currently has open.
// The report is a hint: it may be stale or absent, and no operation depends
// on it for correctness. *view.Tracker satisfies this.
type ViewSource interface {
	Current() (view.Context, bool)
}

// Notifier receives best-effort UI signals: a refresh after successful
// writes, a navigate for explicit view requests. *view.Hub satisfies this.
type Notifier interface {
	NotifyRefresh(entity string)
	NotifyNavigate(entity, filter string)
}

// Dispatcher translates generic tool calls into schema-validated reads and
// writes. It holds no per-call state and is safe for concurrent use.
type Dispatcher struct {
	catalog *schema.Catalog
	store   EntityStore
	views   ViewSource
	notify  Notifier
	logger  *zap.Logger
	limit   int
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithViewSource attaches the active-view hint source
func WithViewSource(v ViewSource) DispatcherOption {
	return func(d *Dispatcher) {
		d.views = v
	}
}

// WithNotifier attaches the UI signal sink
func WithNotifier(n Notifier) DispatcherOption {
	return func(d *Dispatcher) {
		d.notify = n
	}
}

// WithLogger attaches a logger; the default discards everything
func WithLogger(logger *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithDefaultLimit overrides the page size used when a query asks for none
func WithDefaultLimit(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.limit = n
		}
	}
}

// NewDispatcher wires the record tools to a schema catalog and a store
func NewDispatcher(catalog *schema.Catalog, es EntityStore, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		catalog: catalog,
		store:   es,
		logger:  zap.NewNop(),
		limit:   DefaultLimit,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ListEntities renders every entity with its member names, a coarse superset
// of the per-turn summary for synchronous inspection.
func (d *Dispatcher) ListEntities(_ context.Context) (string, error) {
	g, err := d.catalog.Graph()
	if err != nil {
		return "", err
	}
	return render.EntityIndex(g), nil
}

// DescribeEntity renders one entity's full detail: properties with types and
// enum values, relationships with cardinality. An unknown name yields
// guidance text listing the valid names, never an error.
func (d *Dispatcher) DescribeEntity(ctx context.Context, entity string) (string, error) {
	return asText(d.describe(ctx, entity))
}

func (d *Dispatcher) describe(_ context.Context, entity string) (string, error) {
	g, err := d.catalog.Graph()
	if err != nil {
		return "", err
	}

	name := d.defaultEntityName(entity)
	if name == "" {
		return "", &ValidationError{Message: "Provide an entity name. Use list_entities to see what is available."}
	}
	return render.Detail(g, name), nil
}

// QueryEntity returns up to limit records matching the filter, rendered with
// display labels. The filter is the flat key=value;key2=value2 form.
func (d *Dispatcher) QueryEntity(ctx context.Context, entity, filter string, limit int) (string, error) {
	pairs, err := ParsePairs(filter)
	if err != nil {
		return asText("", err)
	}
	return asText(d.query(ctx, entity, pairs, filter, limit))
}

func (d *Dispatcher) query(ctx context.Context, entity string, pairs []Pair, display string, limit int) (string, error) {
	g, err := d.catalog.Graph()
	if err != nil {
		return "", err
	}
	e, err := d.resolveEntity(g, entity)
	if err != nil {
		return "", err
	}

	conds, err := d.queryConditions(ctx, g, e, pairs)
	if err != nil {
		return "", err
	}

	if limit <= 0 {
		limit = d.limit
	}

	records, err := d.store.List(ctx, e, conds, limit)
	if err != nil {
		return "", err
	}

	d.logger.Debug("query served",
		zap.String("entity", e.Name),
		zap.Int("records", len(records)))

	if len(records) == 0 {
		return render.NoneFound(e, display), nil
	}

	refs, err := d.resolveRefLabels(ctx, g, e, records)
	if err != nil {
		return "", err
	}
	return render.Records(e, records, refs), nil
}

// CreateEntity inserts one record from property pairs. Every pair must
// convert and every relationship reference must resolve uniquely before
// anything is written; the insert itself runs in a single transaction.
func (d *Dispatcher) CreateEntity(ctx context.Context, entity, properties string) (string, error) {
	pairs, err := ParsePairs(properties)
	if err != nil {
		return asText("", err)
	}
	return asText(d.create(ctx, entity, pairs))
}

func (d *Dispatcher) create(ctx context.Context, entity string, pairs []Pair) (string, error) {
	g, err := d.catalog.Graph()
	if err != nil {
		return "", err
	}
	e, err := d.resolveEntity(g, entity)
	if err != nil {
		return "", err
	}

	if len(pairs) == 0 {
		return "", &ValidationError{
			Message: fmt.Sprintf("Provide properties as key1=value1;key2=value2. Use describe_entity(%q) for the available keys.", e.Name),
		}
	}

	values, err := d.buildValues(ctx, g, e, pairs)
	if err != nil {
		return "", err
	}
	if err := checkRequired(e, values); err != nil {
		return "", err
	}

	record, err := d.store.Insert(ctx, e, values)
	if err != nil {
		return "", err
	}

	d.logger.Info("record created",
		zap.String("entity", e.Name),
		zap.Any("id", record[schema.IdentityColumn]))
	d.signalRefresh(e.Name)

	return fmt.Sprintf("Created %s: %s", e.Name, d.renderRecord(ctx, g, e, record)), nil
}

// UpdateEntity applies property pairs to one record. The identifier is
// tried as an exact primary key first, then as a unique display-label
// substring. Pairs are resolved exactly as for create; nothing is written
// unless every pair succeeds.
func (d *Dispatcher) UpdateEntity(ctx context.Context, entity, identifier, properties string) (string, error) {
	pairs, err := ParsePairs(properties)
	if err != nil {
		return asText("", err)
	}
	return asText(d.update(ctx, entity, identifier, pairs))
}

func (d *Dispatcher) update(ctx context.Context, entity, identifier string, pairs []Pair) (string, error) {
	g, err := d.catalog.Graph()
	if err != nil {
		return "", err
	}
	e, err := d.resolveEntity(g, entity)
	if err != nil {
		return "", err
	}

	if len(pairs) == 0 {
		return "", &ValidationError{
			Message: fmt.Sprintf("Provide properties to change as key1=value1;key2=value2. Use describe_entity(%q) for the available keys.", e.Name),
		}
	}

	id, err := d.resolveIdentifier(ctx, e, identifier)
	if err != nil {
		return "", err
	}

	values, err := d.buildValues(ctx, g, e, pairs)
	if err != nil {
		return "", err
	}

	record, err := d.store.Update(ctx, e, id, values)
	if err != nil {
		return "", err
	}

	d.logger.Info("record updated",
		zap.String("entity", e.Name),
		zap.String("id", id))
	d.signalRefresh(e.Name)

	return fmt.Sprintf("Updated %s: %s", e.Name, d.renderRecord(ctx, g, e, record)), nil
}

// OpenEntityView asks the attached UI to open a list view of the entity,
// optionally pre-filtered. The signal is best-effort; the data layer is
// untouched.
func (d *Dispatcher) OpenEntityView(ctx context.Context, entity, filter string) (string, error) {
	pairs, err := ParsePairs(filter)
	if err != nil {
		return asText("", err)
	}
	return asText(d.openView(ctx, entity, pairs, filter))
}

func (d *Dispatcher) openView(_ context.Context, entity string, pairs []Pair, display string) (string, error) {
	g, err := d.catalog.Graph()
	if err != nil {
		return "", err
	}
	e, err := d.resolveEntity(g, entity)
	if err != nil {
		return "", err
	}

	// Reject typo'd filter keys here instead of handing them to the UI.
	for _, pair := range pairs {
		if _, ok := e.Property(pair.Key); ok {
			continue
		}
		if r, ok := e.Relationship(pair.Key); ok && !r.IsCollection {
			continue
		}
		return "", &UnknownKeyError{Entity: e.Name, Key: pair.Key, Valid: validKeys(e)}
	}

	if d.notify == nil {
		return fmt.Sprintf("No UI is attached; cannot open a %s view.", e.Name), nil
	}

	d.notify.NotifyNavigate(e.Name, display)
	if display == "" {
		return fmt.Sprintf("Asked the UI to open the %s list view.", e.Name), nil
	}
	return fmt.Sprintf("Asked the UI to open the %s list view filtered by %q.", e.Name, display), nil
}

// defaultEntityName trims the entity argument, falling back to the active
// view's entity when the argument is empty.
func (d *Dispatcher) defaultEntityName(arg string) string {
	name := strings.TrimSpace(arg)
	if name != "" {
		return name
	}
	if d.views == nil {
		return ""
	}
	if vc, ok := d.views.Current(); ok {
		return vc.Entity
	}
	return ""
}

// resolveEntity resolves the entity argument against the graph
func (d *Dispatcher) resolveEntity(g *schema.Graph, arg string) (*schema.EntityMetadata, error) {
	name := d.defaultEntityName(arg)
	if name == "" {
		return nil, &ValidationError{Message: "Provide an entity name. Use list_entities to see what is available."}
	}

	e, ok := g.Entity(name)
	if !ok {
		return nil, &NotFoundError{What: "entity", Name: name, Alternatives: g.Names()}
	}
	return e, nil
}

// queryConditions translates filter pairs into store conditions. Text
// properties match by case-insensitive substring, other scalars by typed
// equality, and to-one relationships by an IN over the keys of target
// records whose display label contains the value.
func (d *Dispatcher) queryConditions(ctx context.Context, g *schema.Graph, e *schema.EntityMetadata, pairs []Pair) ([]store.Condition, error) {
	conds := make([]store.Condition, 0, len(pairs))

	for _, pair := range pairs {
		if p, ok := e.Property(pair.Key); ok {
			cond, err := propertyCondition(p, pair)
			if err != nil {
				return nil, err
			}
			conds = append(conds, cond)
			continue
		}

		if r, ok := e.Relationship(pair.Key); ok && !r.IsCollection {
			target, err := d.targetEntity(g, r)
			if err != nil {
				return nil, err
			}
			m, err := d.matchLabels(ctx, target, pair.Value)
			if err != nil {
				return nil, err
			}
			// Zero label matches yield an empty result, not an error.
			conds = append(conds, store.Condition{Column: r.ForeignKey, Op: store.OpIn, Value: m.ids})
			continue
		}

		return nil, &UnknownKeyError{Entity: e.Name, Key: pair.Key, Valid: validKeys(e)}
	}

	return conds, nil
}

// propertyCondition builds the condition for one scalar filter pair
func propertyCondition(p *schema.PropertyMetadata, pair Pair) (store.Condition, error) {
	if p.Type.IsText() {
		return store.Condition{Column: p.StorageName, Op: store.OpContainsFold, Value: pair.Value}, nil
	}

	v, err := schema.ConvertValue(p, pair.Value)
	if err != nil {
		return store.Condition{}, &ConversionError{Key: p.Name, Value: pair.Value, TypeName: p.TypeName(), Cause: err}
	}
	return store.Condition{Column: p.StorageName, Op: store.OpEqual, Value: v}, nil
}

// buildValues converts property pairs into storage values. Every pair must
// resolve before the caller writes anything; a failure here means no write
// happens at all.
func (d *Dispatcher) buildValues(ctx context.Context, g *schema.Graph, e *schema.EntityMetadata, pairs []Pair) (map[string]any, error) {
	values := make(map[string]any, len(pairs))

	for _, pair := range pairs {
		if p, ok := e.Property(pair.Key); ok {
			v, err := schema.ConvertValue(p, pair.Value)
			if err != nil {
				return nil, &ConversionError{Key: p.Name, Value: pair.Value, TypeName: p.TypeName(), Cause: err}
			}
			values[p.StorageName] = v
			continue
		}

		if r, ok := e.Relationship(pair.Key); ok && !r.IsCollection {
			id, err := d.resolveReference(ctx, g, r, pair)
			if err != nil {
				return nil, err
			}
			values[r.ForeignKey] = id
			continue
		}

		return nil, &UnknownKeyError{Entity: e.Name, Key: pair.Key, Valid: validKeys(e)}
	}

	return values, nil
}

// resolveReference resolves a relationship pair for a write. The value must
// match exactly one target record's display label; an empty value clears the
// reference.
func (d *Dispatcher) resolveReference(ctx context.Context, g *schema.Graph, r *schema.RelationshipMetadata, pair Pair) (any, error) {
	target, err := d.targetEntity(g, r)
	if err != nil {
		return nil, err
	}

	term := strings.TrimSpace(pair.Value)
	if term == "" || strings.EqualFold(term, "null") {
		return nil, nil
	}

	m, err := d.matchLabels(ctx, target, term)
	if err != nil {
		return nil, err
	}

	switch len(m.ids) {
	case 0:
		return nil, &RelationMatchError{
			Key:        r.PropertyName,
			Value:      pair.Value,
			Target:     target.Name,
			Candidates: m.sample,
		}
	case 1:
		return m.ids[0], nil
	default:
		return nil, &AmbiguousMatchError{
			What:    fmt.Sprintf("%s reference", target.Name),
			Value:   pair.Value,
			Matches: capStrings(m.labels, candidateMax),
		}
	}
}

// resolveIdentifier resolves an update target: an exact primary-key lookup
// first, then a unique substring match against display labels. An empty
// identifier falls back to the record open in the active detail view.
func (d *Dispatcher) resolveIdentifier(ctx context.Context, e *schema.EntityMetadata, identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)

	if identifier == "" {
		if d.views != nil {
			if vc, ok := d.views.Current(); ok &&
				vc.Kind == view.KindDetail && vc.RecordID != "" && strings.EqualFold(vc.Entity, e.Name) {
				return vc.RecordID, nil
			}
		}
		return "", &ValidationError{
			Message: fmt.Sprintf("Provide an identifier: a %s id or part of its display label.", e.Name),
		}
	}

	if id, err := uuid.Parse(identifier); err == nil {
		_, err := d.store.Get(ctx, e, id.String())
		if err == nil {
			return id.String(), nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return "", err
		}
		// A well-formed id with no record falls through to label search.
	}

	m, err := d.matchLabels(ctx, e, identifier)
	if err != nil {
		return "", err
	}

	switch len(m.ids) {
	case 0:
		return "", &NotFoundError{
			What: fmt.Sprintf("%s record", e.Name),
			Name: identifier,
			Hint: fmt.Sprintf("Use query_entity(%q) to find the right record.", e.Name),
		}
	case 1:
		return refKey(m.ids[0]), nil
	default:
		return "", &AmbiguousMatchError{
			What:    fmt.Sprintf("%s identifier", e.Name),
			Value:   identifier,
			Matches: capStrings(m.labels, candidateMax),
		}
	}
}

// labelMatches is the result of scanning an entity's records for a display
// label containing a search term
type labelMatches struct {
	ids    []any    // primary keys of matching records, enumeration order
	labels []string // display labels of matching records
	sample []string // first labels seen regardless of match, for guidance
}

// matchLabels enumerates every record of an entity and collects the ones
// whose display label contains term case-insensitively
func (d *Dispatcher) matchLabels(ctx context.Context, e *schema.EntityMetadata, term string) (*labelMatches, error) {
	records, err := d.store.List(ctx, e, nil, 0)
	if err != nil {
		return nil, err
	}

	m := &labelMatches{}
	needle := strings.ToLower(strings.TrimSpace(term))

	for _, rec := range records {
		label := schema.DisplayLabel(e, rec)
		if len(m.sample) < candidateMax {
			m.sample = append(m.sample, label)
		}
		if strings.Contains(strings.ToLower(label), needle) {
			m.ids = append(m.ids, rec[schema.IdentityColumn])
			m.labels = append(m.labels, label)
		}
	}

	return m, nil
}

// targetEntity resolves a relationship's target metadata. Discovery drops
// relations whose target is missing, so a miss here is an internal fault.
func (d *Dispatcher) targetEntity(g *schema.Graph, r *schema.RelationshipMetadata) (*schema.EntityMetadata, error) {
	target, ok := g.Entity(r.TargetEntityName)
	if !ok {
		return nil, fmt.Errorf("relationship %s points at unknown entity %s", r.PropertyName, r.TargetEntityName)
	}
	return target, nil
}

// resolveRefLabels batch-loads display labels for the to-one references in a
// result page, one IN query per relationship.
func (d *Dispatcher) resolveRefLabels(ctx context.Context, g *schema.Graph, e *schema.EntityMetadata, records []map[string]any) (render.RefLabels, error) {
	refs := make(render.RefLabels)

	for _, r := range e.Relationships {
		if r.IsCollection {
			continue
		}
		target, ok := g.Entity(r.TargetEntityName)
		if !ok {
			continue
		}

		var ids []any
		seen := make(map[string]bool)
		for _, rec := range records {
			v, ok := rec[r.ForeignKey]
			if !ok || v == nil {
				continue
			}
			key := refKey(v)
			if !seen[key] {
				seen[key] = true
				ids = append(ids, v)
			}
		}
		if len(ids) == 0 {
			continue
		}

		related, err := d.store.List(ctx, target, []store.Condition{
			{Column: schema.IdentityColumn, Op: store.OpIn, Value: ids},
		}, 0)
		if err != nil {
			return nil, err
		}

		labels := make(map[string]string, len(related))
		for _, rec := range related {
			labels[refKey(rec[schema.IdentityColumn])] = schema.DisplayLabel(target, rec)
		}
		refs[r.PropertyName] = labels
	}

	return refs, nil
}

// renderRecord renders one stored record for a write confirmation. Label
// resolution is presentation only; its failure never undoes the write.
func (d *Dispatcher) renderRecord(ctx context.Context, g *schema.Graph, e *schema.EntityMetadata, record map[string]any) string {
	refs, err := d.resolveRefLabels(ctx, g, e, []map[string]any{record})
	if err != nil {
		d.logger.Warn("failed to resolve reference labels",
			zap.String("entity", e.Name),
			zap.Error(err))
		refs = nil
	}
	return render.Record(e, record, refs)
}

// signalRefresh tells the UI to reload views of an entity after a write
func (d *Dispatcher) signalRefresh(entity string) {
	if d.notify != nil {
		d.notify.NotifyRefresh(entity)
	}
}

// checkRequired verifies every non-nullable property has a value before an
// insert reaches the database
func checkRequired(e *schema.EntityMetadata, values map[string]any) error {
	var missing []string
	for _, p := range e.Properties {
		if p.Nullable {
			continue
		}
		if v, ok := values[p.StorageName]; !ok || v == nil {
			missing = append(missing, p.Name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{
			Message: fmt.Sprintf("Missing required properties for %s: %s.", e.Name, strings.Join(missing, ", ")),
		}
	}
	return nil
}

// validKeys returns the member names addressable in key=value pairs: scalar
// properties and to-one relationships. Collections cannot be filtered or
// assigned this way.
func validKeys(e *schema.EntityMetadata) []string {
	names := make([]string, 0, len(e.Properties)+len(e.Relationships))
	for _, p := range e.Properties {
		names = append(names, p.Name)
	}
	for _, r := range e.Relationships {
		if !r.IsCollection {
			names = append(names, r.PropertyName)
		}
	}
	return names
}

// displayFilter renders pairs back in the flat form for result messages
func displayFilter(pairs []Pair) string {
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.Key + "=" + p.Value
	}
	return strings.Join(parts, "; ")
}

// refKey renders a foreign-key value as map-key text, tolerating the types
// drivers hand back
func refKey(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func capStrings(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// asText applies the tool-boundary policy: conditions the model can correct
// come back as instructive text with a nil error, everything else propagates
// to the host.
func asText(out string, err error) (string, error) {
	if err == nil {
		return out, nil
	}
	if Recoverable(err) {
		return err.Error(), nil
	}
	if text, ok := constraintText(err); ok {
		return text, nil
	}
	return "", err
}

// constraintText maps database constraint failures and lost records onto
// guidance text. Connectivity and driver failures stay fatal.
func constraintText(err error) (string, bool) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "The record was not found; it may have been deleted. Use query_entity to find a current one.", true
	case errors.Is(err, store.ErrStaleRecord):
		return "The record changed while this update was running. Use query_entity to see its current state, then retry.", true
	case errors.Is(err, store.ErrUniqueViolation):
		return "The change conflicts with an existing record: a unique value is already taken.", true
	case errors.Is(err, store.ErrForeignKeyViolation):
		return "The change references a record that does not exist.", true
	case errors.Is(err, store.ErrNotNullViolation):
		return "A required value is missing.", true
	case errors.Is(err, store.ErrCheckViolation):
		return "A value is outside the range the database accepts.", true
	default:
		return "", false
	}
}
