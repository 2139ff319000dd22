package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Permissions maps an upper-cased role name to the permissions it grants.
type Permissions map[string][]string

var ErrNoRoles = errors.New("permissions file defines no roles")

type permissionsFile struct {
	Roles map[string][]string `yaml:"roles"`
}

// LoadPermissions reads a permissions.yml file. Role keys are upper-cased so
// "Doctor" and "DOCTOR" in the file mean the same role.
func LoadPermissions(path string) (Permissions, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read permissions: %w", err)
	}
	var pf permissionsFile
	if err := yaml.Unmarshal(b, &pf); err != nil {
		return nil, fmt.Errorf("parse permissions %s: %w", path, err)
	}
	if len(pf.Roles) == 0 {
		return nil, ErrNoRoles
	}

	perms := make(Permissions, len(pf.Roles))
	for role, granted := range pf.Roles {
		key := strings.ToUpper(role)
		perms[key] = append(perms[key], granted...)
	}
	return perms, nil
}

// Grants reports whether role holds permission.
func (p Permissions) Grants(role, permission string) bool {
	for _, granted := range p[strings.ToUpper(role)] {
		if granted == permission {
			return true
		}
	}
	return false
}
