package authority

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Permissions is an extensible bit set of access grants.
type Permissions uint64

const (
	PermPersonnel Permissions = 1 << iota
	PermWork
	PermAttendance
	PermReport
	PermAdmin
	// PermPersonnelStaff marks members of the personnel department, who may act on other employees' records.
	PermPersonnelStaff
)

const PermNone Permissions = 0

var permissionNames = []struct {
	perm Permissions
	name string
}{
	{PermPersonnel, "personnel"},
	{PermWork, "work"},
	{PermAttendance, "attendance"},
	{PermReport, "report"},
	{PermAdmin, "admin"},
	{PermPersonnelStaff, "personnel-staff"},
}

// PermAll grants every known permission.
var PermAll = func() Permissions {
	var all Permissions
	for _, p := range permissionNames {
		all |= p.perm
	}
	return all
}()

// Has reports whether every bit of required is granted.
func (p Permissions) Has(required Permissions) bool {
	return p&required == required
}

func (p Permissions) With(others Permissions) Permissions {
	return p | others
}

func (p Permissions) Without(others Permissions) Permissions {
	return p &^ others
}

// Names lists granted permissions in declaration order. Unknown bits are rendered as bit:<n>.
func (p Permissions) Names() []string {
	names := []string{}
	rest := p
	for _, v := range permissionNames {
		if p.Has(v.perm) {
			names = append(names, v.name)
			rest = rest.Without(v.perm)
		}
	}
	for bit := 0; rest != 0 && bit < 64; bit++ {
		if rest&(1<<bit) != 0 {
			names = append(names, fmt.Sprintf("bit:%d", bit))
			rest &^= 1 << bit
		}
	}
	return names
}

func (p Permissions) String() string {
	return strings.Join(p.Names(), ",")
}

func ParsePermission(name string) (Permissions, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, v := range permissionNames {
		if v.name == n {
			return v.perm, nil
		}
	}
	var bit int
	if _, err := fmt.Sscanf(n, "bit:%d", &bit); err == nil && bit >= 0 && bit < 64 {
		return Permissions(1) << bit, nil
	}
	return PermNone, fmt.Errorf("unknown permission '%s'", name)
}

func ParsePermissions(names []string) (Permissions, error) {
	var p Permissions
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		v, err := ParsePermission(name)
		if err != nil {
			return PermNone, err
		}
		p = p.With(v)
	}
	return p, nil
}

func (p Permissions) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Names())
}

func (p *Permissions) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	v, err := ParsePermissions(names)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// UnmarshalYAML accepts the same name list form used in configuration files.
func (p *Permissions) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var names []string
	if err := unmarshal(&names); err != nil {
		return err
	}
	v, err := ParsePermissions(names)
	if err != nil {
		return err
	}
	*p = v
	return nil
}
