package regions

import (
	"fmt"
	"strconv"
	"strings"

	"areasigns.ai/internal/sim/binding"
)

type Kind string

const (
	KindRent Kind = "RENT"
	KindBuy  Kind = "BUY"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToUpper(strings.TrimSpace(s))) {
	case KindRent:
		return KindRent, nil
	case KindBuy:
		return KindBuy, nil
	}
	return "", fmt.Errorf("unknown region kind %q", s)
}

type Landlord struct {
	ID   string
	Name string
}

// RentTerms is the payload only rent regions carry.
type RentTerms struct {
	Duration Duration
}

// Region is a registered leasing entity. Geometry is owned by the geometry
// provider; Region only carries identity and economics.
type Region struct {
	Name     string
	World    string
	Kind     Kind
	Landlord *Landlord
	Price    float64
	Rent     *RentTerms // set iff Kind == KindRent
}

func NewRent(name, world string) *Region {
	return &Region{Name: name, World: world, Kind: KindRent, Rent: &RentTerms{Duration: DefaultRentDuration}}
}

func NewBuy(name, world string) *Region {
	return &Region{Name: name, World: world, Kind: KindBuy}
}

func New(kind Kind, name, world string) (*Region, error) {
	switch kind {
	case KindRent:
		return NewRent(name, world), nil
	case KindBuy:
		return NewBuy(name, world), nil
	}
	return nil, fmt.Errorf("unknown region kind %q", kind)
}

func (r *Region) Ref() binding.RegionRef {
	return binding.RegionRef{World: r.World, Name: r.Name}
}

func (r *Region) SetLandlord(id, name string) {
	r.Landlord = &Landlord{ID: id, Name: name}
}

func (r *Region) SetDuration(d Duration) error {
	switch r.Kind {
	case KindRent:
		if r.Rent == nil {
			r.Rent = &RentTerms{}
		}
		r.Rent.Duration = d
		return nil
	case KindBuy:
		return fmt.Errorf("region %s: buy regions have no duration", r.Name)
	}
	return fmt.Errorf("region %s: unknown kind %q", r.Name, r.Kind)
}

// Placeholders feeds marker line templates.
func (r *Region) Placeholders() map[string]string {
	out := map[string]string{
		"region": r.Name,
		"world":  r.World,
		"type":   strings.ToLower(string(r.Kind)),
		"price":  FormatPrice(r.Price),
	}
	if r.Landlord != nil {
		out["landlord"] = r.Landlord.Name
	} else {
		out["landlord"] = ""
	}
	switch r.Kind {
	case KindRent:
		if r.Rent != nil {
			out["duration"] = r.Rent.Duration.String()
		}
	case KindBuy:
		out["duration"] = ""
	}
	return out
}

func FormatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
