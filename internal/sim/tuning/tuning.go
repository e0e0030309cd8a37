package tuning

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"areasigns.ai/internal/sim/regions"
)

type Tuning struct {
	SignTags    SignTags        `yaml:"sign_tags"`
	Permissions PermissionNodes `yaml:"permissions"`

	ConfirmWindowSeconds int  `yaml:"confirm_window_seconds"`
	ConfirmDeleteAlways  bool `yaml:"confirm_delete_always"`

	// Region names matching any pattern can never be registered.
	Blacklist []string `yaml:"blacklist"`
	// Per-world cap on registered regions; 0 or missing is unlimited.
	MaxRegions map[string]int `yaml:"max_regions"`

	DefaultProfile string             `yaml:"default_profile"`
	Profiles       map[string]Profile `yaml:"profiles"`

	// Message templates by key; %0%, %1%, ... are replaced by arguments.
	Messages map[string]string `yaml:"messages"`
}

type SignTags struct {
	Rent string `yaml:"rent"`
	Buy  string `yaml:"buy"`
	Add  string `yaml:"add"`
}

type PermissionNodes struct {
	CreateRent       string `yaml:"create_rent"`
	CreateRentMember string `yaml:"create_rent_member"`
	CreateRentOwner  string `yaml:"create_rent_owner"`
	CreateBuy        string `yaml:"create_buy"`
	CreateBuyMember  string `yaml:"create_buy_member"`
	CreateBuyOwner   string `yaml:"create_buy_owner"`
	AddSign          string `yaml:"add_sign"`
	DelSign          string `yaml:"del_sign"`
	Delete           string `yaml:"delete"`
	Info             string `yaml:"info"`
}

// Profile selects what a marker shows and which commands its clicks run.
type Profile struct {
	Rent ProfileState `yaml:"rent"`
	Buy  ProfileState `yaml:"buy"`
}

type ProfileState struct {
	// Up to four lines; %region%, %price%, %duration%, %landlord%, %world%,
	// %type% are substituted.
	Lines []string `yaml:"lines"`
	// Click type (left, right, shift_left, shift_right) to commands.
	Commands map[string][]string `yaml:"commands,omitempty"`
}

func Defaults() Tuning {
	return Tuning{
		SignTags: SignTags{Rent: "[asrent]", Buy: "[asbuy]", Add: "[as]"},
		Permissions: PermissionNodes{
			CreateRent:       "signs.createrent",
			CreateRentMember: "signs.createrent.member",
			CreateRentOwner:  "signs.createrent.owner",
			CreateBuy:        "signs.createbuy",
			CreateBuyMember:  "signs.createbuy.member",
			CreateBuyOwner:   "signs.createbuy.owner",
			AddSign:          "signs.addsign",
			DelSign:          "signs.delsign",
			Delete:           "signs.destroy",
			Info:             "signs.info",
		},
		ConfirmWindowSeconds: 60,
		DefaultProfile:       "default",
		Profiles: map[string]Profile{
			"default": {
				Rent: ProfileState{
					Lines:    []string{"[For Rent]", "%region%", "%duration%", "%price%"},
					Commands: map[string][]string{"right": {"info %region%"}},
				},
				Buy: ProfileState{
					Lines:    []string{"[For Sale]", "%region%", "%price%"},
					Commands: map[string][]string{"right": {"info %region%"}},
				},
			},
		},
		Messages: map[string]string{},
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("signs.yaml: %w", err)
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("signs.yaml: %w", err)
	}
	return t, nil
}

func (t *Tuning) Normalize() {
	d := Defaults()
	if strings.TrimSpace(t.SignTags.Rent) == "" {
		t.SignTags.Rent = d.SignTags.Rent
	}
	if strings.TrimSpace(t.SignTags.Buy) == "" {
		t.SignTags.Buy = d.SignTags.Buy
	}
	if strings.TrimSpace(t.SignTags.Add) == "" {
		t.SignTags.Add = d.SignTags.Add
	}
	p, dp := &t.Permissions, d.Permissions
	fill := func(v *string, def string) {
		if strings.TrimSpace(*v) == "" {
			*v = def
		}
	}
	fill(&p.CreateRent, dp.CreateRent)
	fill(&p.CreateRentMember, dp.CreateRentMember)
	fill(&p.CreateRentOwner, dp.CreateRentOwner)
	fill(&p.CreateBuy, dp.CreateBuy)
	fill(&p.CreateBuyMember, dp.CreateBuyMember)
	fill(&p.CreateBuyOwner, dp.CreateBuyOwner)
	fill(&p.AddSign, dp.AddSign)
	fill(&p.DelSign, dp.DelSign)
	fill(&p.Delete, dp.Delete)
	fill(&p.Info, dp.Info)
	if t.ConfirmWindowSeconds <= 0 {
		t.ConfirmWindowSeconds = d.ConfirmWindowSeconds
	}
	if strings.TrimSpace(t.DefaultProfile) == "" {
		t.DefaultProfile = d.DefaultProfile
	}
	if len(t.Profiles) == 0 {
		t.Profiles = d.Profiles
	}
	if t.Messages == nil {
		t.Messages = map[string]string{}
	}
}

func (t Tuning) Validate() error {
	tags := []string{t.SignTags.Rent, t.SignTags.Buy, t.SignTags.Add}
	for i, a := range tags {
		for j, b := range tags {
			if i != j && a == b {
				return fmt.Errorf("sign_tags must be distinct: %q", a)
			}
		}
	}
	if _, ok := t.Profiles[t.DefaultProfile]; !ok {
		return fmt.Errorf("default_profile %q not found in profiles", t.DefaultProfile)
	}
	for name, p := range t.Profiles {
		if len(p.Rent.Lines) > 4 || len(p.Buy.Lines) > 4 {
			return fmt.Errorf("profile %s: at most 4 lines per state", name)
		}
		for _, st := range []ProfileState{p.Rent, p.Buy} {
			for click := range st.Commands {
				if !validClicks[click] {
					return fmt.Errorf("profile %s: unknown click type %q", name, click)
				}
			}
		}
	}
	if _, err := t.BlacklistPatterns(); err != nil {
		return err
	}
	for w, n := range t.MaxRegions {
		if n < 0 {
			return fmt.Errorf("max_regions[%s] must be >= 0", w)
		}
	}
	return nil
}

var validClicks = map[string]bool{"left": true, "right": true, "shift_left": true, "shift_right": true}

// BlacklistPatterns compiles the blacklist; patterns match the whole name,
// case-insensitively.
func (t Tuning) BlacklistPatterns() ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(t.Blacklist))
	for _, p := range t.Blacklist {
		re, err := regexp.Compile("(?i)^(?:" + p + ")$")
		if err != nil {
			return nil, fmt.Errorf("blacklist %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func (t Tuning) CreateNodes() map[regions.Kind]regions.CreateNodes {
	p := t.Permissions
	return map[regions.Kind]regions.CreateNodes{
		regions.KindRent: {Create: p.CreateRent, Member: p.CreateRentMember, Owner: p.CreateRentOwner},
		regions.KindBuy:  {Create: p.CreateBuy, Member: p.CreateBuyMember, Owner: p.CreateBuyOwner},
	}
}

func (t Tuning) ConfirmWindow() time.Duration {
	return time.Duration(t.ConfirmWindowSeconds) * time.Second
}

// ProfileFor returns the named profile, falling back to the default one.
func (t Tuning) ProfileFor(name string) Profile {
	if p, ok := t.Profiles[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p
	}
	if p, ok := t.Profiles[name]; ok {
		return p
	}
	return t.Profiles[t.DefaultProfile]
}

func (p Profile) State(kind regions.Kind) ProfileState {
	switch kind {
	case regions.KindRent:
		return p.Rent
	case regions.KindBuy:
		return p.Buy
	}
	return ProfileState{}
}
