package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/vsinha/wms/pkg/domain/entities"
	"github.com/vsinha/wms/pkg/domain/repositories"
)

// Snapshot is the serialisable representation of the store contents.
// Slices keep insertion order so listings stay stable across reloads.
type Snapshot struct {
	Goods      []*entities.Goods      `json:"goods"`
	Operations []*entities.Operation  `json:"operations"`
	Properties []*entities.Properties `json:"properties"`
}

// CommitHook runs with the state about to be committed. Returning an error
// aborts the commit and leaves the store unchanged.
type CommitHook func(ctx context.Context, snapshot Snapshot) error

// Option configures a Store
type Option func(*Store)

// WithCommitHook installs a hook invoked before every commit
func WithCommitHook(hook CommitHook) Option {
	return func(s *Store) { s.commitHook = hook }
}

// WithIDGenerator replaces the uuid-based identifier generator
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// Store provides transactional in-memory goods and operation storage
type Store struct {
	mu         sync.RWMutex
	state      state
	types      repositories.GoodsTypeRepository
	commitHook CommitHook
	newID      func() string
}

// NewStore creates a new in-memory store. Goods types are read-only
// configuration supplied by types; a nil types repository knows no types.
func NewStore(types repositories.GoodsTypeRepository, opts ...Option) *Store {
	s := &Store{
		state: newState(),
		types: types,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.types == nil {
		s.types = emptyTypes{}
	}
	return s
}

// Verify interface compliance
var _ repositories.Store = (*Store)(nil)

// RunInTransaction runs fn against a private copy of the state and swaps it
// in only when fn and the commit hook both succeed.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx repositories.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{state: s.state.clone(), types: s.types, newID: s.newID}
	if err := fn(tx); err != nil {
		return err
	}
	if s.commitHook != nil {
		if err := s.commitHook(ctx, tx.state.snapshot()); err != nil {
			return err
		}
	}
	s.state = tx.state
	return nil
}

// View runs fn against a read-only copy of the committed state
func (s *Store) View(ctx context.Context, fn func(v repositories.View) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return fn(&transaction{state: snapshot, types: s.types, newID: s.newID})
}

// ExportState returns a copy of the committed state
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.snapshot()
}

// ImportState replaces the committed state with the snapshot contents
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = stateFromSnapshot(snapshot)
}

type state struct {
	goods      map[entities.GoodsID]*entities.Goods
	goodsOrder []entities.GoodsID
	ops        map[entities.OperationID]*entities.Operation
	opsOrder   []entities.OperationID
	props      map[string]*entities.Properties
	propsOrder []string
}

func newState() state {
	return state{
		goods: make(map[entities.GoodsID]*entities.Goods),
		ops:   make(map[entities.OperationID]*entities.Operation),
		props: make(map[string]*entities.Properties),
	}
}

func (st state) clone() state {
	return stateFromSnapshot(st.snapshot())
}

func (st state) snapshot() Snapshot {
	snap := Snapshot{
		Goods:      make([]*entities.Goods, 0, len(st.goodsOrder)),
		Operations: make([]*entities.Operation, 0, len(st.opsOrder)),
		Properties: make([]*entities.Properties, 0, len(st.propsOrder)),
	}
	for _, id := range st.goodsOrder {
		snap.Goods = append(snap.Goods, st.goods[id].Clone())
	}
	for _, id := range st.opsOrder {
		snap.Operations = append(snap.Operations, st.ops[id].Clone())
	}
	for _, id := range st.propsOrder {
		snap.Properties = append(snap.Properties, st.props[id].Clone())
	}
	return snap
}

func stateFromSnapshot(snap Snapshot) state {
	st := newState()
	for _, g := range snap.Goods {
		if g == nil {
			continue
		}
		st.goods[g.ID] = g.Clone()
		st.goodsOrder = append(st.goodsOrder, g.ID)
	}
	for _, op := range snap.Operations {
		if op == nil {
			continue
		}
		st.ops[op.ID] = op.Clone()
		st.opsOrder = append(st.opsOrder, op.ID)
	}
	for _, p := range snap.Properties {
		if p == nil {
			continue
		}
		st.props[p.ID] = p.Clone()
		st.propsOrder = append(st.propsOrder, p.ID)
	}
	return st
}

type transaction struct {
	state state
	types repositories.GoodsTypeRepository
	newID func() string
}

// GetGoods returns a copy of the goods record
func (tx *transaction) GetGoods(id entities.GoodsID) (*entities.Goods, error) {
	g, ok := tx.state.goods[id]
	if !ok {
		return nil, entities.NewError(entities.ErrCodeNotFound, "goods not found: %s", id)
	}
	return g.Clone(), nil
}

// ListGoods returns goods matching the filter in insertion order
func (tx *transaction) ListGoods(filter repositories.GoodsFilter) ([]*entities.Goods, error) {
	var out []*entities.Goods
	for _, id := range tx.state.goodsOrder {
		g := tx.state.goods[id]
		if filter.Matches(g) {
			out = append(out, g.Clone())
		}
	}
	return out, nil
}

// InsertGoods stores a new goods record, assigning its identifier when empty
func (tx *transaction) InsertGoods(goods *entities.Goods) (*entities.Goods, error) {
	g := goods.Clone()
	if g.ID == "" {
		g.ID = entities.GoodsID(tx.newID())
	}
	if _, exists := tx.state.goods[g.ID]; exists {
		return nil, entities.NewError(entities.ErrCodeCreationArgument, "goods already exists: %s", g.ID)
	}
	tx.state.goods[g.ID] = g
	tx.state.goodsOrder = append(tx.state.goodsOrder, g.ID)
	return g.Clone(), nil
}

// UpdateGoods applies mutator to the stored record; the identifier cannot change
func (tx *transaction) UpdateGoods(id entities.GoodsID, mutator func(*entities.Goods) error) (*entities.Goods, error) {
	current, ok := tx.state.goods[id]
	if !ok {
		return nil, entities.NewError(entities.ErrCodeNotFound, "goods not found: %s", id)
	}
	updated := current.Clone()
	if err := mutator(updated); err != nil {
		return nil, err
	}
	updated.ID = id
	tx.state.goods[id] = updated
	return updated.Clone(), nil
}

// InsertProperties stores a property record, assigning its identifier when empty
func (tx *transaction) InsertProperties(props *entities.Properties) (*entities.Properties, error) {
	p := props.Clone()
	if p.ID == "" {
		p.ID = tx.newID()
	}
	if _, exists := tx.state.props[p.ID]; !exists {
		tx.state.propsOrder = append(tx.state.propsOrder, p.ID)
	}
	tx.state.props[p.ID] = p
	return p.Clone(), nil
}

// GetOperation returns a copy of the operation
func (tx *transaction) GetOperation(id entities.OperationID) (*entities.Operation, error) {
	op, ok := tx.state.ops[id]
	if !ok {
		return nil, entities.NewError(entities.ErrCodeNotFound, "operation not found: %s", id)
	}
	return op.Clone(), nil
}

// ListOperations returns all operations in insertion order
func (tx *transaction) ListOperations() ([]*entities.Operation, error) {
	out := make([]*entities.Operation, 0, len(tx.state.opsOrder))
	for _, id := range tx.state.opsOrder {
		out = append(out, tx.state.ops[id].Clone())
	}
	return out, nil
}

// InsertOperation stores a new operation, assigning its identifier when empty
func (tx *transaction) InsertOperation(op *entities.Operation) (*entities.Operation, error) {
	o := op.Clone()
	if o.ID == "" {
		o.ID = entities.OperationID(tx.newID())
	}
	if _, exists := tx.state.ops[o.ID]; exists {
		return nil, entities.NewError(entities.ErrCodeCreationArgument, "operation already exists: %s", o.ID)
	}
	tx.state.ops[o.ID] = o
	tx.state.opsOrder = append(tx.state.opsOrder, o.ID)
	return o.Clone(), nil
}

// UpdateOperation applies mutator to the stored operation. Follows is
// immutable after creation and is restored whatever the mutator does.
func (tx *transaction) UpdateOperation(id entities.OperationID, mutator func(*entities.Operation) error) (*entities.Operation, error) {
	current, ok := tx.state.ops[id]
	if !ok {
		return nil, entities.NewError(entities.ErrCodeNotFound, "operation not found: %s", id)
	}
	updated := current.Clone()
	if err := mutator(updated); err != nil {
		return nil, err
	}
	updated.ID = id
	updated.Follows = append([]entities.OperationID(nil), current.Follows...)
	tx.state.ops[id] = updated
	return updated.Clone(), nil
}

// GetGoodsType delegates to the configured type repository
func (tx *transaction) GetGoodsType(id entities.GoodsTypeID) (*entities.GoodsType, error) {
	return tx.types.GetGoodsType(id)
}

// GoodsTypes delegates to the configured type repository
func (tx *transaction) GoodsTypes(ids []entities.GoodsTypeID) (map[entities.GoodsTypeID]*entities.GoodsType, error) {
	return tx.types.GoodsTypes(ids)
}

type emptyTypes struct{}

func (emptyTypes) GetGoodsType(id entities.GoodsTypeID) (*entities.GoodsType, error) {
	return nil, entities.NewError(entities.ErrCodeNotFound, "goods type not found: %s", id)
}

func (emptyTypes) GoodsTypes([]entities.GoodsTypeID) (map[entities.GoodsTypeID]*entities.GoodsType, error) {
	return map[entities.GoodsTypeID]*entities.GoodsType{}, nil
}
