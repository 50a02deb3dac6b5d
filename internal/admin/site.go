package admin

import (
	"context"
	"net/http"
	"slices"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

var (
	ErrUnknownEntity = errors.New("unknown admin entity")
	ErrUnknownAction = errors.New("unknown admin action")
	ErrNoSelection   = errors.New("no items selected")
)

// ActionFunc runs a bulk action over the selected row ids and writes the
// response itself: a file download, or a redirect back to the entity.
type ActionFunc func(w http.ResponseWriter, r *http.Request, ids []int64) error

type Action struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Run         ActionFunc `json:"-"`
}

// ModelAdmin holds the bulk actions offered for one entity. Dynamic, when set,
// is consulted on every request so actions track rows that change at runtime.
type ModelAdmin struct {
	Entity  string
	Actions []Action
	Dynamic func(ctx context.Context) ([]Action, error)
}

func (m *ModelAdmin) actions(ctx context.Context) ([]Action, error) {
	out := slices.Clone(m.Actions)
	if m.Dynamic == nil {
		return out, nil
	}
	more, err := m.Dynamic(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s actions", m.Entity)
	}
	return append(out, more...), nil
}

// Site is the registry of entity admins.
type Site struct {
	models map[string]*ModelAdmin
	order  []string
	log    *zap.Logger
}

func NewSite(log *zap.Logger) *Site {
	return &Site{models: map[string]*ModelAdmin{}, log: log.Named("admin")}
}

func (s *Site) Register(m *ModelAdmin) {
	if _, dup := s.models[m.Entity]; dup {
		panic("admin: entity registered twice: " + m.Entity)
	}
	s.models[m.Entity] = m
	s.order = append(s.order, m.Entity)
}

func (s *Site) Entities() []string {
	return slices.Clone(s.order)
}

// Actions lists the actions available on entity right now.
func (s *Site) Actions(ctx context.Context, entity string) ([]Action, error) {
	m, ok := s.models[entity]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownEntity, "%q", entity)
	}
	return m.actions(ctx)
}

// Run resolves the named action on entity and applies it to ids.
func (s *Site) Run(w http.ResponseWriter, r *http.Request, entity, action string, ids []int64) error {
	actions, err := s.Actions(r.Context(), entity)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(actions, func(a Action) bool { return a.Name == action })
	if i < 0 {
		return errors.Wrapf(ErrUnknownAction, "%q on %s", action, entity)
	}
	if len(ids) == 0 {
		return ErrNoSelection
	}

	s.log.Info("admin action", zap.String("entity", entity), zap.String("action", action), zap.Int("selected", len(ids)))
	return actions[i].Run(w, r, ids)
}
