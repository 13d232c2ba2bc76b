package database

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"estate-service/model"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

// RESTful RBAC: subjects are user ids grouped into roles, objects are paths.
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && regexMatch(r.act, p.act)
`

var enforcer atomic.Pointer[casbin.SyncedEnforcer]

const (
	adminPath    = "/v1/admin*"
	adminMethods = "(GET)|(POST)|(PUT)|(DELETE)"
)

func CasbinConnect() *casbin.SyncedEnforcer {
	// Initialize casbin adapter
	adapter, err := gormadapter.NewAdapterByDB(Postgres)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize casbin adapter: %v", err))
	}

	m, err := casbinmodel.NewModelFromString(rbacModel)
	if err != nil {
		panic(fmt.Sprintf("failed to parse casbin model: %v", err))
	}

	e, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		panic(fmt.Sprintf("failed to create casbin enforcer: %v", err))
	}

	// Add default policy
	hasPolicy, err := e.HasPolicy(string(model.RoleAdmin), adminPath, adminMethods)
	if err != nil {
		panic(fmt.Sprintf("failed to read casbin policy: %v", err))
	}
	if !hasPolicy {
		if _, err := e.AddPolicy(string(model.RoleAdmin), adminPath, adminMethods); err != nil {
			panic(fmt.Sprintf("failed to add casbin policy: %v", err))
		}
	}

	if err := e.LoadPolicy(); err != nil {
		panic(fmt.Sprintf("failed to load casbin policy: %v", err))
	}
	enforcer.Store(e)
	return e
}

func Casbin() *casbin.SyncedEnforcer {
	if e := enforcer.Load(); e != nil {
		return e
	}
	return CasbinConnect()
}

// AssignRole replaces the role grouping of a user.
func AssignRole(userID uint, role string) error {
	e := Casbin()
	subject := fmt.Sprint(userID)
	if _, err := e.DeleteRolesForUser(subject); err != nil {
		return err
	}
	_, err := e.AddGroupingPolicy(subject, role)
	return err
}

// BootstrapAdmin promotes the user registered under email, if any.
func BootstrapAdmin(email string) error {
	if email == "" {
		return nil
	}

	user := model.User{}
	err := Postgres.Where(&model.User{Email: strings.ToLower(email)}).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if !user.IsAdmin() {
		if err := Postgres.Model(&user).Update("role", model.RoleAdmin).Error; err != nil {
			return err
		}
	}
	return AssignRole(user.ID, string(model.RoleAdmin))
}
