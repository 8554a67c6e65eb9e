package grocery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/memohai/converse/internal/action"
	"github.com/memohai/converse/internal/identity"
	"github.com/memohai/converse/internal/messenger"
)

// Store is the part of identity.Service the actions write through.
type Store interface {
	OrganizationFor(ctx context.Context, tenant identity.Tenant) (identity.Extension, error)
	UpdateExtensionData(ctx context.Context, record identity.ExtensionRecord, data any) (identity.ExtensionRecord, error)
}

var errNotGroceryUser = errors.New("call user is not a grocery user")

// Shop builds the grocery actions. Orders from members of the same
// workspace are serialized so concurrent adds do not overwrite each other.
type Shop struct {
	store  Store
	now    func() time.Time
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewShop(log *slog.Logger, store Store) *Shop {
	return &Shop{
		store:  store,
		now:    time.Now,
		logger: log.With(slog.String("service", "grocery")),
		locks:  map[string]*sync.Mutex{},
	}
}

// Install registers the actions with whichever dispatcher policy is active.
// Registry names match what the convention policy derives with an empty
// prefix: "grocery.add" resolves to GroceryAddAction.
func (s *Shop) Install(policy string, registry *action.Registry, catalog *action.Catalog) error {
	ctors := map[string]action.Constructor{
		"grocery.add":  s.AddAction,
		"grocery.list": s.ListAction,
	}
	for name, ctor := range ctors {
		var err error
		switch policy {
		case action.PolicyConvention:
			err = catalog.Add(ctor)
		default:
			err = registry.Register(name, ctor)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Shop) tenantLock(tenantID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[tenantID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[tenantID] = l
	}
	return l
}

func (s *Shop) organization(ctx context.Context, tenant identity.Tenant) (*Organization, error) {
	ext, err := s.store.OrganizationFor(ctx, tenant)
	if err != nil {
		return nil, err
	}
	org, ok := ext.(*Organization)
	if !ok {
		return nil, fmt.Errorf("organization extension is %T", ext)
	}
	return org, nil
}

// GroceryAddAction appends an item to the workspace list and confirms to the
// member who asked.
type GroceryAddAction struct {
	shop *Shop
	call action.Call
}

func (s *Shop) AddAction(call action.Call) action.Action {
	return &GroceryAddAction{shop: s, call: call}
}

func (a *GroceryAddAction) Execute(ctx context.Context) error {
	user, ok := a.call.User.(*User)
	if !ok {
		return errNotGroceryUser
	}
	item := strings.TrimSpace(a.call.Param("item"))
	if item == "" {
		send(ctx, user.Messenger(), "What should I add to the list?", nil)
		return nil
	}
	quantity := 1
	if raw := strings.TrimSpace(a.call.Param("quantity")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			send(ctx, user.Messenger(), fmt.Sprintf("%q is not a quantity I understand.", raw), nil)
			return nil
		}
		quantity = n
	}

	tenant := user.Tenant()
	lock := a.shop.tenantLock(tenant.ID)
	lock.Lock()
	defer lock.Unlock()

	org, err := a.shop.organization(ctx, tenant)
	if err != nil {
		return err
	}
	data := org.Data
	data.Orders = append(data.Orders, Order{
		Item:     item,
		Quantity: quantity,
		UserID:   user.UserID(),
		AddedAt:  a.shop.now().UTC().Format(time.RFC3339),
	})
	if _, err := a.shop.store.UpdateExtensionData(ctx, org.Record(), data); err != nil {
		return fmt.Errorf("record order: %w", err)
	}
	userData := user.Data
	userData.OrdersPlaced++
	if _, err := a.shop.store.UpdateExtensionData(ctx, user.Record(), userData); err != nil {
		return fmt.Errorf("count order: %w", err)
	}
	a.shop.logger.Info("order recorded",
		slog.String("team_id", tenant.ExternalID),
		slog.String("user_id", user.UserID()),
		slog.String("item", item),
	)

	send(ctx, user.Messenger(), fmt.Sprintf("Added %d x %s to the %s list.", quantity, item, org.Name()), []messenger.QuickReply{
		{Label: "Show list", Value: "show list"},
	})
	if channel := org.Messenger(); channel != nil {
		send(ctx, channel, fmt.Sprintf("%s added %d x %s.", user.Name(), quantity, item), nil)
	}
	return nil
}

// GroceryListAction sends the current workspace list to the member.
type GroceryListAction struct {
	shop *Shop
	call action.Call
}

func (s *Shop) ListAction(call action.Call) action.Action {
	return &GroceryListAction{shop: s, call: call}
}

func (a *GroceryListAction) Execute(ctx context.Context) error {
	user, ok := a.call.User.(*User)
	if !ok {
		return errNotGroceryUser
	}
	org, err := a.shop.organization(ctx, user.Tenant())
	if err != nil {
		return err
	}
	if len(org.Data.Orders) == 0 {
		send(ctx, user.Messenger(), "The list is empty.", nil)
		return nil
	}
	var b strings.Builder
	b.WriteString("On the list:")
	for _, o := range org.Data.Orders {
		fmt.Fprintf(&b, "\n- %d x %s", o.Quantity, o.Item)
	}
	send(ctx, user.Messenger(), b.String(), nil)
	return nil
}

func send(ctx context.Context, m messenger.Messenger, text string, replies []messenger.QuickReply) {
	if m == nil {
		return
	}
	m.SendText(ctx, text, replies)
}
