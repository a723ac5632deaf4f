package core

import (
	"os"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Kudos-earning activities. Point values come from the catalog file, never from code.
const (
	ActivityQuizCompletion       = "quiz_completion"
	ActivityAssignmentSubmission = "assignment_submission"
	ActivityTaskCompletion       = "task_completion"
	ActivityPostCreation         = "post_creation"
	ActivityResponseCreation     = "response_creation"
	ActivityCorrectAnswer        = "correct_answer"
	ActivityAttendance           = "attendance"
)

// AvatarItem is a purchasable avatar catalog entry.
type AvatarItem struct {
	Key      string `mapstructure:"key" json:"key"`
	AssetRef string `mapstructure:"assetRef" json:"asset_ref"`
	Cost     int    `mapstructure:"cost" json:"cost"`
}

// Catalog holds the avatar catalog and the kudos point values. It is read-only
// to callers and safe for concurrent use; the backing file is watched so edits
// take effect without a redeploy.
type Catalog struct {
	mu      sync.RWMutex
	avatars map[string]AvatarItem
	values  map[string]int
	log     Logger
}

// NewCatalog loads the catalog file named by Conf's "catalogPath" and keeps
// watching it. A missing or broken file falls back to the compiled-in defaults.
func NewCatalog(log Logger) *Catalog {
	c := &Catalog{
		avatars: defaultAvatars(),
		values:  defaultKudosValues(),
		log:     log,
	}

	path := Conf.GetString("catalogPath")
	if _, err := os.Stat(path); err != nil {
		return c
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		log.Error("reading catalog file, using defaults", err)
		return c
	}
	c.load(v)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		c.load(v)
		c.log.Info("catalog reloaded", e.Name)
	})
	return c
}

// NewStaticCatalog builds a Catalog from explicit entries; missing kudos values
// fall back to the defaults. Meant for tests and tooling.
func NewStaticCatalog(avatars []AvatarItem, values map[string]int) *Catalog {
	c := &Catalog{
		avatars: make(map[string]AvatarItem, len(avatars)),
		values:  defaultKudosValues(),
		log:     NopLogger(),
	}
	for _, av := range avatars {
		c.avatars[av.Key] = av
	}
	for activity, pts := range values {
		c.values[activity] = pts
	}
	return c
}

func (c *Catalog) load(v *viper.Viper) {
	var raw struct {
		Avatars []AvatarItem   `mapstructure:"avatars"`
		Kudos   map[string]int `mapstructure:"kudos"`
	}
	if err := v.Unmarshal(&raw); err != nil {
		c.log.Error("unmarshalling catalog file, keeping previous entries", err)
		return
	}

	avatars := make(map[string]AvatarItem, len(raw.Avatars))
	for _, av := range raw.Avatars {
		if av.Key == "" || av.Cost <= 0 {
			c.log.Warn("skipping catalog avatar with empty key or non-positive cost", av)
			continue
		}
		avatars[av.Key] = av
	}

	values := defaultKudosValues()
	for activity, pts := range raw.Kudos {
		if pts < 0 {
			c.log.Warn("skipping negative kudos value", activity)
			continue
		}
		values[activity] = pts
	}

	c.mu.Lock()
	if len(avatars) > 0 {
		c.avatars = avatars
	}
	c.values = values
	c.mu.Unlock()
}

// Avatar looks up a purchasable avatar by key.
func (c *Catalog) Avatar(key string) (AvatarItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	av, ok := c.avatars[key]
	return av, ok
}

// Avatars lists all purchasable avatars, ordered by key for deterministic output.
func (c *Catalog) Avatars() []AvatarItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	all := make([]AvatarItem, 0, len(c.avatars))
	for _, av := range c.avatars {
		all = append(all, av)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Key < all[j].Key })
	return all
}

// Value returns the configured point value for a kudos-earning activity;
// 0 if the activity is unknown or disabled.
func (c *Catalog) Value(activity string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[activity]
}

func defaultAvatars() map[string]AvatarItem {
	return map[string]AvatarItem{
		"bandit":  {Key: "bandit", AssetRef: "avatars/bandit.svg", Cost: 100},
		"cuddles": {Key: "cuddles", AssetRef: "avatars/cuddles.svg", Cost: 100},
		"sprout":  {Key: "sprout", AssetRef: "avatars/sprout.svg", Cost: 150},
		"comet":   {Key: "comet", AssetRef: "avatars/comet.svg", Cost: 250},
	}
}

func defaultKudosValues() map[string]int {
	return map[string]int{
		ActivityQuizCompletion:       100,
		ActivityAssignmentSubmission: 100,
		ActivityTaskCompletion:       50,
		ActivityPostCreation:         20,
		ActivityResponseCreation:     20,
		ActivityCorrectAnswer:        50,
		ActivityAttendance:           30,
	}
}
