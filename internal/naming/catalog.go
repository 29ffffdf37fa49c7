// Package naming validates biomechanical feature-column names against the
// standard <joint>_<motion>_<measurement>_<side>_<unit> convention and offers
// best-effort suggestions for non-standard names.
//
// The catalogs below are the single source of truth for the naming taxonomy.
// Everything downstream (cycle extraction, tuning, validation) treats feature
// names as opaque strings and relies on this package for conformance checks.
package naming

import (
	"fmt"
	"sort"
)

// Catalog is the enumerated naming taxonomy, loaded once at process start
// and passed by reference into the components that need ordering.
type Catalog struct {
	Joints       []string
	Motions      []string
	Measurements []string
	Sides        []string
	Units        []string

	joints       map[string]struct{}
	motions      map[string]struct{}
	measurements map[string]struct{}
	sides        map[string]struct{}
	units        map[string]struct{}
}

// Standard returns the canonical catalog. The slice order is the canonical
// feature ordering used when callers do not request an explicit feature list.
func Standard() *Catalog {
	c := &Catalog{
		Joints: []string{
			"hip", "knee", "ankle", "pelvis", "trunk", "foot", "shank", "thigh",
		},
		Motions: []string{
			"flexion", "extension", "adduction", "abduction", "rotation",
			"dorsiflexion", "plantarflexion", "inversion", "eversion",
			"tilt", "obliquity", "progression",
		},
		Measurements: []string{
			"angle", "velocity", "moment", "power", "force",
		},
		Sides: []string{
			"ipsi", "contra",
		},
		Units: []string{
			"rad", "rad_s", "deg", "deg_s", "Nm", "Nm_kg", "N", "N_kg",
			"W", "W_kg", "BW", "percent", "m", "m_s",
		},
	}
	c.index()
	return c
}

func (c *Catalog) index() {
	c.joints = toSet(c.Joints)
	c.motions = toSet(c.Motions)
	c.measurements = toSet(c.Measurements)
	c.sides = toSet(c.Sides)
	c.units = toSet(c.Units)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// HasJoint reports catalog membership for the joint token.
func (c *Catalog) HasJoint(token string) bool { _, ok := c.joints[token]; return ok }

// HasMotion reports catalog membership for the motion token.
func (c *Catalog) HasMotion(token string) bool { _, ok := c.motions[token]; return ok }

// HasMeasurement reports catalog membership for the measurement token.
func (c *Catalog) HasMeasurement(token string) bool { _, ok := c.measurements[token]; return ok }

// HasSide reports catalog membership for the side token.
func (c *Catalog) HasSide(token string) bool { _, ok := c.sides[token]; return ok }

// HasUnit reports catalog membership for the unit token.
func (c *Catalog) HasUnit(token string) bool { _, ok := c.units[token]; return ok }

// CanonicalOrder returns all catalog-conformant names from candidates in
// canonical catalog order: sorted by joint, then motion, then measurement,
// then side, then unit, each in catalog slice order.
func (c *Catalog) CanonicalOrder(candidates []string) []string {
	rank := func(list []string, token string) int {
		for i, v := range list {
			if v == token {
				return i
			}
		}
		return len(list)
	}

	type ranked struct {
		name string
		key  [5]int
	}
	var conformant []ranked
	for _, name := range candidates {
		parts, err := Split(name)
		if err != nil || !c.Conformant(parts) {
			continue
		}
		conformant = append(conformant, ranked{
			name: name,
			key: [5]int{
				rank(c.Joints, parts.Joint),
				rank(c.Motions, parts.Motion),
				rank(c.Measurements, parts.Measurement),
				rank(c.Sides, parts.Side),
				rank(c.Units, parts.Unit),
			},
		})
	}

	sort.SliceStable(conformant, func(i, j int) bool {
		return less(conformant[i].key, conformant[j].key)
	})

	names := make([]string, len(conformant))
	for i, r := range conformant {
		names[i] = r.name
	}
	return names
}

func less(a, b [5]int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Parts is a feature name decomposed into its taxonomy tokens.
type Parts struct {
	Joint       string
	Motion      string
	Measurement string
	Side        string
	Unit        string
}

// String reassembles the canonical feature name.
func (p Parts) String() string {
	return fmt.Sprintf("%s_%s_%s_%s_%s", p.Joint, p.Motion, p.Measurement, p.Side, p.Unit)
}

// Conformant reports whether every token is a catalog member.
func (c *Catalog) Conformant(p Parts) bool {
	return c.HasJoint(p.Joint) &&
		c.HasMotion(p.Motion) &&
		c.HasMeasurement(p.Measurement) &&
		c.HasSide(p.Side) &&
		c.HasUnit(p.Unit)
}
