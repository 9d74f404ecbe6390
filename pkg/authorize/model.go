package authorize

import (
	casbin "github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// modelText is a flat role -> (resource, action) model. Roles are the subjects;
// per-record rules (participant, owner) are checked by the services.
const modelText = `[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act, eft

[policy_effect]
e = some(where (p.eft == allow)) && !some(where (p.eft == deny))

[matchers]
m = r.sub == p.sub && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

// Model parses the built-in access model.
func Model() (model.Model, error) {
	return model.NewModelFromString(modelText)
}

// NewMemoryEnforcer returns an enforcer with no adapter. Policies live only in
// process memory and have to be seeded on every start.
func NewMemoryEnforcer() (*casbin.DistributedEnforcer, error) {
	m, err := Model()
	if err != nil {
		return nil, err
	}
	e, err := casbin.NewDistributedEnforcer(m)
	if err != nil {
		return nil, err
	}
	e.EnableAutoSave(false)
	e.EnableEnforce(true)
	return e, nil
}
