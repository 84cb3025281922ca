package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"poker-rooms/models"
)

// CreateRoomRequest describes a new room. Zero values fall back to the
// manager defaults. The blinds are pointers so a room can turn them off: a
// nil blind uses the default, a zero big blind disables blinds. When only the
// big blind is given the small blind is half of it. When HostID is set the
// creator is seated as host.
type CreateRoomRequest struct {
	RoomID         string
	Name           string
	MinPlayers     int
	MaxPlayers     int
	Password       string
	StartingChips  int
	SmallBlind     *int
	BigBlind       *int
	SplitRemainder models.RemainderPolicy
	HostID         string
	HostName       string
}

type RoomSummary struct {
	RoomID      string             `json:"roomId"`
	Name        string             `json:"name"`
	PlayerCount int                `json:"playerCount"`
	MaxPlayers  int                `json:"maxPlayers"`
	Status      models.TableStatus `json:"status"`
	HasPassword bool               `json:"hasPassword"`
	HandNumber  int                `json:"handNumber"`
}

type room struct {
	mu    sync.Mutex
	table *models.Table
	rng   *rand.Rand
}

// TableManager owns every room. Commands on one room are serialised by the
// room lock; different rooms proceed in parallel.
type TableManager struct {
	rooms map[string]*room
	mu    sync.RWMutex

	store       Store
	broadcaster Broadcaster
	logger      *zap.Logger
	defaults    models.TableConfig
	bcryptCost  int
	seed        *uint64
	roomCount   atomic.Uint64
	endedTTL    time.Duration
	now         func() time.Time
}

// DefaultEndedRoomTTL is how long an ended room stays readable before it is evicted.
const DefaultEndedRoomTTL = 10 * time.Minute

type Option func(*TableManager)

func WithStore(s Store) Option {
	return func(tm *TableManager) { tm.store = s }
}

func WithBroadcaster(b Broadcaster) Option {
	return func(tm *TableManager) { tm.broadcaster = b }
}

func WithLogger(l *zap.Logger) Option {
	return func(tm *TableManager) { tm.logger = l }
}

// WithDefaults sets the configuration rooms get when a request leaves a field at zero.
func WithDefaults(c models.TableConfig) Option {
	return func(tm *TableManager) { tm.defaults = c }
}

// WithEndedRoomTTL sets how long ended rooms are kept before EvictEnded drops them.
func WithEndedRoomTTL(d time.Duration) Option {
	return func(tm *TableManager) { tm.endedTTL = d }
}

func WithBcryptCost(cost int) Option {
	return func(tm *TableManager) { tm.bcryptCost = cost }
}

// WithSeed makes shuffles reproducible: room n gets PCG(seed, n).
func WithSeed(seed uint64) Option {
	return func(tm *TableManager) { tm.seed = &seed }
}

func NewTableManager(opts ...Option) *TableManager {
	tm := &TableManager{
		rooms:       make(map[string]*room),
		store:       nopStore{},
		broadcaster: MultiBroadcaster(nil),
		logger:      zap.NewNop(),
		bcryptCost:  bcrypt.DefaultCost,
		endedTTL:    DefaultEndedRoomTTL,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

func (tm *TableManager) newRand() *rand.Rand {
	n := tm.roomCount.Add(1)
	if tm.seed != nil {
		return rand.New(rand.NewPCG(*tm.seed, n))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func (tm *TableManager) CreateRoom(ctx context.Context, req CreateRoomRequest) (string, error) {
	roomID := req.RoomID
	if roomID == "" {
		roomID = uuid.NewString()
	}

	config := tm.defaults
	if req.MinPlayers != 0 {
		config.MinPlayers = req.MinPlayers
	}
	if req.MaxPlayers != 0 {
		config.MaxPlayers = req.MaxPlayers
	}
	if req.StartingChips != 0 {
		config.StartingChips = req.StartingChips
	}
	if req.BigBlind != nil {
		config.BigBlind = *req.BigBlind
		config.SmallBlind = *req.BigBlind / 2
	}
	if req.SmallBlind != nil {
		config.SmallBlind = *req.SmallBlind
	}
	if req.SplitRemainder != "" {
		config.SplitRemainder = req.SplitRemainder
	}

	var hash string
	if req.Password != "" {
		b, err := bcrypt.GenerateFromPassword([]byte(req.Password), tm.bcryptCost)
		if err != nil {
			return "", fmt.Errorf("hash room password: %w", err)
		}
		hash = string(b)
	}

	table, err := NewTable(roomID, req.Name, config, hash)
	if err != nil {
		return "", err
	}
	r := &room{table: table, rng: tm.newRand()}

	var events []models.Event
	if req.HostID != "" {
		g := NewGame(table, r.rng)
		if err := g.Join(req.HostID, req.HostName, req.Password, true); err != nil {
			return "", err
		}
		events = g.Events()
	}

	tm.mu.Lock()
	if _, exists := tm.rooms[roomID]; exists {
		tm.mu.Unlock()
		return "", fmt.Errorf("room %s: %w", roomID, ErrRoomExists)
	}
	tm.rooms[roomID] = r
	// taken before the map lock is released so a racing command cannot publish first
	r.mu.Lock()
	tm.mu.Unlock()
	defer r.mu.Unlock()

	tm.logger.Info("room created",
		zap.String("room_id", roomID),
		zap.String("name", table.Name),
		zap.Int("min_players", table.Config.MinPlayers),
		zap.Int("max_players", table.Config.MaxPlayers),
		zap.Bool("password", table.HasPassword()))
	tm.persist(ctx, table)
	tm.publish(ctx, roomID, events)
	return roomID, nil
}

func (tm *TableManager) Join(ctx context.Context, roomID, playerID, playerName, password string) error {
	return tm.apply(ctx, roomID, "join", func(g *Game) error {
		return g.Join(playerID, playerName, password, false)
	})
}

func (tm *TableManager) Start(ctx context.Context, roomID string) error {
	return tm.apply(ctx, roomID, "start", func(g *Game) error {
		return g.StartHand()
	})
}

func (tm *TableManager) Act(ctx context.Context, roomID string, action models.Action) error {
	return tm.apply(ctx, roomID, "act", func(g *Game) error {
		return g.Act(action)
	})
}

// ActAt is Act guarded by the action sequence of the turn the caller saw. A
// timed-out turn that has since moved on is rejected with ErrStaleAction.
func (tm *TableManager) ActAt(ctx context.Context, roomID string, action models.Action, sequence uint64) error {
	return tm.apply(ctx, roomID, "act", func(g *Game) error {
		return g.ActAt(action, sequence)
	})
}

func (tm *TableManager) Leave(ctx context.Context, roomID, playerID string) error {
	return tm.apply(ctx, roomID, "leave", func(g *Game) error {
		return g.Leave(playerID)
	})
}

func (tm *TableManager) EndRoom(ctx context.Context, roomID, playerID string) error {
	return tm.apply(ctx, roomID, "end", func(g *Game) error {
		return g.EndRoom(playerID)
	})
}

// GetTable returns a copy of the full table state, hole cards included.
func (tm *TableManager) GetTable(roomID string) (*models.Table, error) {
	r, err := tm.room(roomID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.table.Clone(), nil
}

// View returns the table as playerID may see it.
func (tm *TableManager) View(roomID, playerID string) (*models.Table, error) {
	r, err := tm.room(roomID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.table.ViewFor(playerID), nil
}

func (tm *TableManager) ListRooms() []RoomSummary {
	tm.mu.RLock()
	rooms := make([]*room, 0, len(tm.rooms))
	for _, r := range tm.rooms {
		rooms = append(rooms, r)
	}
	tm.mu.RUnlock()

	type entry struct {
		summary RoomSummary
		created int64
	}
	entries := make([]entry, 0, len(rooms))
	for _, r := range rooms {
		r.mu.Lock()
		t := r.table
		entries = append(entries, entry{
			summary: RoomSummary{
				RoomID:      t.TableID,
				Name:        t.Name,
				PlayerCount: len(t.Players),
				MaxPlayers:  t.Config.MaxPlayers,
				Status:      t.Status,
				HasPassword: t.HasPassword(),
				HandNumber:  t.HandNumber,
			},
			created: t.CreatedAt.UnixNano(),
		})
		r.mu.Unlock()
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].created != entries[j].created {
			return entries[i].created < entries[j].created
		}
		return entries[i].summary.RoomID < entries[j].summary.RoomID
	})

	out := make([]RoomSummary, len(entries))
	for i, e := range entries {
		out[i] = e.summary
	}
	return out
}

// Restore loads rooms from the store. Rooms already in memory are skipped.
func (tm *TableManager) Restore(ctx context.Context, roomIDs ...string) (int, error) {
	restored := 0
	for _, id := range roomIDs {
		tm.mu.RLock()
		_, loaded := tm.rooms[id]
		tm.mu.RUnlock()
		if loaded {
			continue
		}

		table, err := tm.store.Load(ctx, id)
		if err != nil {
			return restored, fmt.Errorf("restore room %s: %w", id, err)
		}

		tm.mu.Lock()
		if _, loaded := tm.rooms[id]; !loaded {
			tm.rooms[id] = &room{table: table, rng: tm.newRand()}
			restored++
		}
		tm.mu.Unlock()
	}
	if restored > 0 {
		tm.logger.Info("rooms restored", zap.Int("count", restored))
	}
	return restored, nil
}

// EvictEnded drops rooms that ended more than the TTL ago from memory and
// deletes their snapshots. It returns how many rooms went.
func (tm *TableManager) EvictEnded(ctx context.Context) int {
	cutoff := tm.now().Add(-tm.endedTTL)

	tm.mu.RLock()
	candidates := make(map[string]*room, len(tm.rooms))
	for id, r := range tm.rooms {
		candidates[id] = r
	}
	tm.mu.RUnlock()

	evicted := 0
	for id, r := range candidates {
		r.mu.Lock()
		expired := r.table.Status == models.StatusEnded && !r.table.EndedAt.After(cutoff)
		r.mu.Unlock()
		if !expired {
			continue
		}

		tm.mu.Lock()
		owned := tm.rooms[id] == r
		if owned {
			delete(tm.rooms, id)
		}
		tm.mu.Unlock()
		if !owned {
			continue
		}

		evicted++
		if err := tm.store.Delete(ctx, id); err != nil {
			tm.logger.Warn("ended room snapshot not deleted", zap.String("room_id", id), zap.Error(err))
		}
		tm.logger.Info("ended room evicted", zap.String("room_id", id))
	}
	return evicted
}

// RunJanitor calls EvictEnded every interval until ctx is done.
func (tm *TableManager) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tm.EvictEnded(ctx)
		}
	}
}

func (tm *TableManager) room(roomID string) (*room, error) {
	if roomID == "" {
		return nil, ErrMissingID
	}
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	r, ok := tm.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("room %s: %w", roomID, ErrRoomNotFound)
	}
	return r, nil
}

// apply runs fn against a copy of the room's table and keeps the copy only on
// success. Events are published under the room lock so they leave in order.
func (tm *TableManager) apply(ctx context.Context, roomID, op string, fn func(*Game) error) error {
	r, err := tm.room(roomID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	work := r.table.Clone()
	g := NewGame(work, r.rng)
	if err := fn(g); err != nil {
		fields := []zap.Field{
			zap.String("room_id", roomID),
			zap.String("op", op),
			zap.String("class", string(ClassOf(err))),
			zap.Error(err),
		}
		if ClassOf(err) == ResourceError {
			tm.logger.Error("hand aborted", fields...)
		} else {
			tm.logger.Debug("command rejected", fields...)
		}
		return err
	}

	r.table = work
	events := g.Events()
	if len(events) == 0 {
		return nil
	}
	tm.logger.Debug("command applied",
		zap.String("room_id", roomID),
		zap.String("op", op),
		zap.Int("events", len(events)),
		zap.Uint64("sequence", work.EventSequence))
	tm.persist(ctx, work)
	tm.publish(ctx, roomID, events)
	return nil
}

func (tm *TableManager) persist(ctx context.Context, t *models.Table) {
	if err := tm.store.Save(ctx, t); err != nil {
		tm.logger.Warn("snapshot not saved", zap.String("room_id", t.TableID), zap.Error(err))
	}
}

func (tm *TableManager) publish(ctx context.Context, roomID string, events []models.Event) {
	if len(events) == 0 {
		return
	}
	tm.broadcaster.Publish(ctx, roomID, events)
}
