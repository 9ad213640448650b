package auth

import (
	_ "embed"
	"fmt"
	"net/http"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/macromates/nutribuddy/internal/model"
)

// Access is the kind of operation a request performs on a resource.
type Access string

const (
	Read  Access = "read"
	Write Access = "write"
)

// AccessFor classifies an HTTP method: GET and HEAD read, everything else
// writes.
func AccessFor(method string) Access {
	switch method {
	case http.MethodGet, http.MethodHead:
		return Read
	default:
		return Write
	}
}

const anyResource = "*"

//go:embed default_policy.hcl
var defaultPolicy []byte

// policyFile is the HCL layout of a policy file:
//
//	role "nutritionist" {
//	  grant {
//	    resources = ["clients", "meal_logs"]
//	    access    = ["read", "write"]
//	  }
//	}
type policyFile struct {
	Roles []roleBlock `hcl:"role,block"`
}

type roleBlock struct {
	Name   string       `hcl:"name,label"`
	Grants []grantBlock `hcl:"grant,block"`
}

type grantBlock struct {
	Resources []string `hcl:"resources"`
	Access    []string `hcl:"access"`
}

// Policy answers whether a role may read or write a resource. Anything not
// granted is denied.
type Policy struct {
	grants map[model.Role]map[string]map[Access]bool
}

// DefaultPolicy returns the policy compiled into the binary.
func DefaultPolicy() (*Policy, error) {
	return ParsePolicy(defaultPolicy, "default_policy.hcl")
}

// LoadPolicy reads a policy file, or the default policy when path is empty.
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return DefaultPolicy()
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("auth: reading policy file: %w", err)
	}
	return ParsePolicy(src, path)
}

// ParsePolicy decodes HCL policy source. Unknown roles and access kinds are
// rejected so a typo cannot silently drop a grant.
func ParsePolicy(src []byte, filename string) (*Policy, error) {
	var file policyFile
	if err := hclsimple.Decode(filename, src, nil, &file); err != nil {
		if diags, ok := err.(hcl.Diagnostics); ok {
			for _, diag := range diags {
				if diag.Severity == hcl.DiagError {
					return nil, fmt.Errorf("auth: policy error at %s: %s", diag.Subject, diag.Detail)
				}
			}
		}
		return nil, fmt.Errorf("auth: parsing policy: %w", err)
	}

	p := &Policy{grants: map[model.Role]map[string]map[Access]bool{}}
	for _, rb := range file.Roles {
		role := model.Role(rb.Name)
		if !role.Valid() {
			return nil, fmt.Errorf("auth: policy %s: unknown role %q", filename, rb.Name)
		}
		if p.grants[role] == nil {
			p.grants[role] = map[string]map[Access]bool{}
		}

		for _, g := range rb.Grants {
			for _, a := range g.Access {
				access := Access(a)
				if access != Read && access != Write {
					return nil, fmt.Errorf("auth: policy %s: role %q: unknown access %q", filename, rb.Name, a)
				}
				for _, res := range g.Resources {
					if p.grants[role][res] == nil {
						p.grants[role][res] = map[Access]bool{}
					}
					p.grants[role][res][access] = true
				}
			}
		}
	}
	return p, nil
}

// Allows reports whether role may perform access on resource.
func (p *Policy) Allows(role model.Role, resource string, access Access) bool {
	resources := p.grants[role]
	if resources == nil {
		return false
	}
	return resources[resource][access] || resources[anyResource][access]
}
