package tuning

import (
	"testing"

	"areasigns.ai/internal/sim/regions"
)

func TestLoad_ConfigsSignsYAML(t *testing.T) {
	tn, err := Load("../../../configs/signs.yaml")
	if err != nil {
		t.Fatalf("load signs.yaml: %v", err)
	}
	if tn.SignTags.Rent == "" || tn.SignTags.Buy == "" || tn.SignTags.Add == "" {
		t.Fatalf("tags not set: %+v", tn.SignTags)
	}
	if tn.ConfirmWindow().Seconds() != 60 {
		t.Fatalf("confirm window: %v", tn.ConfirmWindow())
	}
	if len(tn.ProfileFor("").Rent.Lines) == 0 {
		t.Fatalf("default profile has no rent lines")
	}
}

func TestNormalize_FillsDefaults(t *testing.T) {
	tn := Tuning{}
	tn.Normalize()
	if err := tn.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if tn.CreateNodes()[regions.KindBuy].Owner != "signs.createbuy.owner" {
		t.Fatalf("permission defaults missing: %+v", tn.Permissions)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tn := Defaults()
	tn.SignTags.Buy = tn.SignTags.Rent
	if err := tn.Validate(); err == nil {
		t.Fatalf("duplicate tags must be rejected")
	}

	tn = Defaults()
	tn.Blacklist = []string{"("}
	if err := tn.Validate(); err == nil {
		t.Fatalf("bad blacklist pattern must be rejected")
	}

	tn = Defaults()
	tn.DefaultProfile = "ghost"
	if err := tn.Validate(); err == nil {
		t.Fatalf("missing default profile must be rejected")
	}
}

func TestBlacklistPatterns_WholeNameCaseInsensitive(t *testing.T) {
	tn := Defaults()
	tn.Blacklist = []string{"__global__", "spawn.*"}
	res, err := tn.BlacklistPatterns()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	match := func(s string) bool {
		for _, re := range res {
			if re.MatchString(s) {
				return true
			}
		}
		return false
	}
	if !match("__GLOBAL__") || !match("spawn_east") || match("my_spawn") {
		t.Fatalf("blacklist matching wrong")
	}
}

func TestMessage(t *testing.T) {
	tn := Defaults()
	tn.Messages["setup-couldNotDetect"] = "%0% and %1% overlap"
	if got := tn.Message("setup-couldNotDetect", "a", "b"); got != "a and b overlap" {
		t.Fatalf("got %q", got)
	}
	if got := tn.Message("missing-key", 3); got != "missing-key: 3" {
		t.Fatalf("got %q", got)
	}
}
