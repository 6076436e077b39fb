package dalleboard

import (
	"errors"
	"math/rand"
	"sync"
	"time"
)

var (
	// ErrNoPrompts is returned by Pick when the candidate list is empty.
	ErrNoPrompts = errors.New("no prompts to pick from")
	// ErrNoAlternative is returned by Pick when every candidate equals the current prompt.
	ErrNoAlternative = errors.New("no prompt other than the current one")
)

// DefaultPrompts feeds the "Surprise me" button.
var DefaultPrompts = []string{
	"an armchair in the shape of an avocado",
	"a plush toy robot sitting against a yellow wall",
	"a synthwave style sunset above the reflecting water of the sea, digital art",
	"a fortune-telling shiba inu reading your fate in a giant hamburger, digital art",
	"a lighthouse on a cliff during a thunderstorm, oil painting",
	"a hedgehog astronaut floating past the rings of Saturn, 3D render",
	"an ancient library inside a hollow tree, lit by fireflies",
	"a bowl of ramen where the noodles form a galaxy, studio photograph",
	"a cyberpunk street market in the rain at night, neon reflections",
	"a red fox in a knitted scarf drinking coffee at a Paris cafe, watercolor",
	"a steampunk airship docking at a floating island, concept art",
	"a teddy bear on a skateboard in Times Square, photograph",
	"a cat wearing a tiny crown sitting on a velvet throne, renaissance portrait",
	"a glass chess set on a beach at golden hour, macro photograph",
	"a koi pond seen from above where the fish are made of origami",
	"a cozy cabin under the northern lights, pixel art",
	"an octopus playing four pianos at once in a jazz club",
	"a vintage robot tending a rooftop vegetable garden, isometric illustration",
	"a waterfall pouring out of a teapot into a misty valley",
	"a desert city built from sandcastles at sunrise, matte painting",
}

// PromptPicker draws random prompts from a fixed list. It is safe for
// concurrent use.
type PromptPicker struct {
	mu      sync.Mutex
	prompts []string
	rng     *rand.Rand
}

// NewPromptPicker returns a picker over prompts. A nil rng is seeded from
// the clock.
func NewPromptPicker(prompts []string, rng *rand.Rand) *PromptPicker {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &PromptPicker{prompts: prompts, rng: rng}
}

// Pick returns a prompt drawn uniformly from the list that differs from
// current. Draws equal to current are rejected and redrawn.
func (p *PromptPicker) Pick(current string) (string, error) {
	if len(p.prompts) == 0 {
		return "", ErrNoPrompts
	}
	if !p.hasAlternative(current) {
		return "", ErrNoAlternative
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		candidate := p.prompts[p.rng.Intn(len(p.prompts))]
		if candidate != current {
			return candidate, nil
		}
	}
}

func (p *PromptPicker) hasAlternative(current string) bool {
	for _, s := range p.prompts {
		if s != current {
			return true
		}
	}
	return false
}
