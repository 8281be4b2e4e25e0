package narrative

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultInterest = "general"

// pendingStory is the terminal fallback, returned when the original passage
// cannot be recovered from the prompt. It must never fail.
const pendingStory = "Our storytelling AI is currently preparing an engaging narrative based on your content. The final story will provide context, meaning, and an engaging perspective that makes the information more accessible and memorable. Please check back shortly for the transformed content."

// Templates holds the interest keyed framing instructions used to build
// generation prompts and the deterministic story wrappers used when
// generation is unavailable or rejected. Fallback templates wrap the
// recovered passage via a single %s verb.
type Templates struct {
	Framings  map[string]string `yaml:"framings"`
	Fallbacks map[string]string `yaml:"fallbacks"`
}

// DefaultTemplates returns the built-in interest catalog.
func DefaultTemplates() Templates {
	return Templates{
		Framings: map[string]string{
			"technology": "Tell me an interesting story about technology innovation",
			"business":   "Share an inspiring business success story",
			"fiction":    "Create a fictional story based on this",
			"science":    "Tell me about a scientific discovery",
			"history":    "Share a historical story",
			"biography":  "Tell me a personal success story",
			"general":    "Tell me an interesting story",
		},
		Fallbacks: map[string]string{
			"technology": "In the world of technological advancement, %s represents a significant milestone. This breakthrough demonstrates how innovation can transform industries and create new possibilities. The team behind this achievement combined technical expertise with strategic vision to create something truly remarkable. As technology continues to evolve, developments like this pave the way for future innovations that will shape our digital landscape for years to come.",
			"business":   "In the competitive business world, %s stands as a testament to strategic execution and market understanding. This success story highlights the importance of innovation, timing, and customer focus in today's dynamic business environment. The achievement reflects careful planning and the ability to adapt to changing market conditions while maintaining a clear vision for growth and impact.",
			"science":    "In scientific research, %s represents an important discovery with far-reaching implications. This breakthrough came through dedicated research, collaboration, and persistent effort to solve complex challenges. The findings contribute valuable knowledge to the scientific community and open new avenues for future exploration and application in addressing real-world problems.",
			"history":    "Throughout history, %s marked a pivotal moment in human development. This historical achievement demonstrates human ingenuity and the capacity for innovation across generations. Understanding these historical developments helps us appreciate the foundations of modern society and the continuous thread of progress that connects past achievements with present possibilities.",
			"general":    "This story about %s represents an important achievement worth celebrating. The details reveal a journey of dedication, innovation, and strategic thinking that led to meaningful outcomes. Such accomplishments often combine multiple factors including timing, expertise, and the ability to see opportunities where others see challenges.",
		},
	}
}

// LoadTemplates overlays entries from a yaml file onto the defaults, so a
// deployment can tune or extend the interest catalog without rebuilding.
func LoadTemplates(path string) (Templates, error) {
	templates := DefaultTemplates()

	data, err := os.ReadFile(path)
	if err != nil {
		return templates, fmt.Errorf("read templates file: %w", err)
	}

	var overrides Templates
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return templates, fmt.Errorf("parse templates file: %w", err)
	}

	for interest, framing := range overrides.Framings {
		framing = strings.TrimSpace(framing)
		if framing == "" {
			continue
		}
		templates.Framings[strings.ToLower(interest)] = framing
	}
	for interest, tmpl := range overrides.Fallbacks {
		if !strings.Contains(tmpl, "%s") {
			return templates, fmt.Errorf("fallback template for %q has no %%s verb", interest)
		}
		templates.Fallbacks[strings.ToLower(interest)] = tmpl
	}

	return templates, nil
}

// fallbackFor returns the wrapper for an interest, or the general one for
// interests without a dedicated template.
func (t Templates) fallbackFor(interest string) string {
	if tmpl, ok := t.Fallbacks[interest]; ok {
		return tmpl
	}
	return t.Fallbacks[defaultInterest]
}
