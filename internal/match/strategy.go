package match

// Thresholds holds the acceptance floors of the strategy cascade. The
// defaults are empirically tuned constants; they are exposed through
// configuration rather than hardcoded so a labeled sample can revalidate
// them.
type Thresholds struct {
	Address       float64 `yaml:"address" mapstructure:"address"`
	ReverseToken  float64 `yaml:"reverse_token" mapstructure:"reverse_token"`
	CityWord      float64 `yaml:"city_word" mapstructure:"city_word"`
	InitialsFloor float64 `yaml:"initials_floor" mapstructure:"initials_floor"`
	InitialsScore float64 `yaml:"initials_score" mapstructure:"initials_score"`
	PostalKeyword float64 `yaml:"postal_keyword" mapstructure:"postal_keyword"`
	MinKeywordLen int     `yaml:"min_keyword_len" mapstructure:"min_keyword_len"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Address:       0.35,
		ReverseToken:  0.30,
		CityWord:      0.25,
		InitialsFloor: 0.15,
		InitialsScore: 0.30,
		PostalKeyword: 0.45,
		MinKeywordLen: 4,
	}
}

func (t *Thresholds) withDefaults() {
	d := DefaultThresholds()
	if t.Address <= 0 {
		t.Address = d.Address
	}
	if t.ReverseToken <= 0 {
		t.ReverseToken = d.ReverseToken
	}
	if t.CityWord <= 0 {
		t.CityWord = d.CityWord
	}
	if t.InitialsFloor <= 0 {
		t.InitialsFloor = d.InitialsFloor
	}
	if t.InitialsScore <= 0 {
		t.InitialsScore = d.InitialsScore
	}
	if t.PostalKeyword <= 0 {
		t.PostalKeyword = d.PostalKeyword
	}
	if t.MinKeywordLen <= 0 {
		t.MinKeywordLen = d.MinKeywordLen
	}
}

// Strategy is one linkage heuristic. Strategies run in a fixed priority
// order; each commits its accepted pairs straight into the tracker so later
// strategies never reconsider a settled phone or record.
type Strategy interface {
	Name() string
	Run(records *RecordIndex, listings *ListingIndex, tr *Tracker)
}

// cascade returns the strategy chain in priority order. The initials pass
// trades precision for recall and can be switched off.
func cascade(th Thresholds, disableInitials bool) []Strategy {
	chain := []Strategy{
		&addressStrategy{threshold: th.Address},
		&reverseTokenStrategy{threshold: th.ReverseToken},
		&cityWordStrategy{threshold: th.CityWord},
	}
	if !disableInitials {
		chain = append(chain, &initialsStrategy{floor: th.InitialsFloor, score: th.InitialsScore})
	}
	return chain
}
