// Package grocery is the example host application: a shared shopping list
// per workspace, filled by its members through the bot.
package grocery

import (
	"fmt"

	"github.com/memohai/converse/internal/identity"
)

const (
	UserKind         = "grocery_user"
	OrganizationKind = "grocery_organization"
)

// UserData is stored on each member's extension record.
type UserData struct {
	OrdersPlaced int `json:"orders_placed"`
}

// Order is one line of the shared list.
type Order struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
	UserID   string `json:"user_id"`
	AddedAt  string `json:"added_at"`
}

// OrganizationData is stored on the workspace's extension record.
type OrganizationData struct {
	Orders []Order `json:"orders"`
}

// User is the grocery view of a conversation identity.
type User struct {
	identity.UserExtension
	Data UserData
}

// Organization is the grocery view of a tenant.
type Organization struct {
	identity.OrganizationExtension
	Data OrganizationData
}

type userImpl struct{}

func (userImpl) Kind() string { return UserKind }

func (userImpl) Build(owner identity.Owner, record identity.ExtensionRecord) (identity.Extension, error) {
	u := &User{UserExtension: identity.NewUserExtension(owner, record)}
	if err := u.DecodeData(&u.Data); err != nil {
		return nil, err
	}
	return u, nil
}

type organizationImpl struct{}

func (organizationImpl) Kind() string { return OrganizationKind }

func (organizationImpl) Build(owner identity.Owner, record identity.ExtensionRecord) (identity.Extension, error) {
	o := &Organization{OrganizationExtension: identity.NewOrganizationExtension(owner, record)}
	if err := o.DecodeData(&o.Data); err != nil {
		return nil, err
	}
	return o, nil
}

// RegisterExtensions installs the grocery user and organization
// implementations.
func RegisterExtensions(exts *identity.Extensions) error {
	if err := exts.Register(identity.RoleUser, userImpl{}); err != nil {
		return fmt.Errorf("register grocery user: %w", err)
	}
	if err := exts.Register(identity.RoleOrganization, organizationImpl{}); err != nil {
		return fmt.Errorf("register grocery organization: %w", err)
	}
	return nil
}
