// Package media turns a student's story into generation-ready prompts for
// the image and video models, applying the per-style art direction and the
// child-safety guidelines every prompt carries.
package media

import (
	"context"
	"fmt"
	"strings"

	"github.com/funwriting/ai-agents/internal/clients/gemini"
	"github.com/funwriting/ai-agents/internal/logger"
	apperrors "github.com/funwriting/ai-agents/internal/pkg/errors"
	"github.com/funwriting/ai-agents/internal/pkg/modeljson"
)

const promptSystemInstruction = `You are a creative AI specializing in generating visual prompts for children's stories.

Your responsibilities:
1. Generate detailed, vivid image prompts from story text
2. Generate video scene descriptions for animations
3. Ensure all prompts are age-appropriate and child-friendly
4. Create engaging, colorful, educational visual descriptions
5. Adapt prompts for different visual styles (comic, manga, princess, standard)

Always create safe, positive, imaginative visual prompts suitable for children.
Always respond with structured JSON format.`

// Image styles.
const (
	StyleStandard = "standard"
	StyleComic    = "comic"
	StyleManga    = "manga"
	StylePrincess = "princess"
)

// Video styles.
const (
	VideoStyleAnimation = "animation"
	VideoStyleCinematic = "cinematic"
)

// sceneFocuses maps 1-based scene indexes to the story aspect each image
// should depict. Indexes past the end clamp to the last entry.
var sceneFocuses = []string{
	"the opening scene or setting",
	"a key moment or action in the middle",
	"the climax or most exciting part",
	"the resolution or ending",
	"an important character or creature",
	"a magical or special object mentioned",
}

const safetyGuidelines = `
Avoid: violence, scary imagery, adult themes, dark themes, weapons.
Ensure: age-appropriate, educational, friendly characters, positive themes.`

// PromptGenerator derives model-ready media prompts from student writing.
type PromptGenerator interface {
	GenerateImagePrompt(ctx context.Context, story, ageGroup string, sceneIndex int, style string) (string, error)
	GenerateVideoPrompt(ctx context.Context, story, ageGroup, style string) (string, error)
}

type promptGenerator struct {
	log   *logger.Logger
	model gemini.Client
}

func NewPromptGenerator(log *logger.Logger, model gemini.Client) PromptGenerator {
	return &promptGenerator{
		log:   log.With("service", "MediaPromptGenerator"),
		model: model,
	}
}

// SceneFocus returns the story aspect for a 1-based image index.
func SceneFocus(sceneIndex int) string {
	i := sceneIndex - 1
	if i < 0 {
		i = 0
	}
	if i >= len(sceneFocuses) {
		i = len(sceneFocuses) - 1
	}
	return sceneFocuses[i]
}

// AspectRatioForStyle picks the canvas shape: panel-based styles render as
// portrait pages, everything else as a widescreen illustration.
func AspectRatioForStyle(style string) string {
	switch style {
	case StyleComic, StyleManga, StylePrincess:
		return "2:3"
	default:
		return "16:9"
	}
}

func styleInstructions(style string) string {
	switch style {
	case StyleComic:
		return fmt.Sprintf(`Create a HERO COMIC STYLE illustration with 3 to 4 comic panels showing the story progression.

Style: Vibrant superhero comic book art, bold outlines, dynamic action poses.
Layout: 3-4 distinct comic panels arranged vertically or in a grid.
Colors: Bright, bold, saturated colors typical of superhero comics.
Characters: Heroic, confident, diverse, child-friendly superhero characters.%s
Art style: Marvel/DC Comics inspired, professional comic book illustration.`, safetyGuidelines)

	case StyleManga:
		return fmt.Sprintf(`Create a BLACK AND WHITE MANGA STYLE illustration with 3 to 4 manga panels showing the story.

Style: Japanese manga art, dramatic angles, expressive characters.
Layout: 3-4 distinct manga panels with clear panel borders.
Colors: BLACK AND WHITE only, using shading, screen tones, and ink work.
Characters: Expressive eyes, dynamic poses, manga-style emotions.%s
Art style: Shonen/Shoujo manga inspired, professional manga illustration, NO COLOR.`, safetyGuidelines)

	case StylePrincess:
		return fmt.Sprintf(`Create a PRINCESS COMIC STYLE illustration with 3 to 4 comic panels showing the magical story.

Style: Enchanting fairy tale comic art, delicate linework, magical atmosphere.
Layout: 3-4 distinct comic panels arranged beautifully.
Colors: Soft pastels, pinks, purples, golds, with sparkles and magical elements.
Characters: Graceful princesses, friendly magical creatures, flowing gowns and tiaras.
Setting: Castles, enchanted forests, magical gardens.%s
Art style: Disney Princess inspired, elegant and enchanting comic panels.`, safetyGuidelines)

	default:
		return fmt.Sprintf(`Create a colorful, child-friendly illustration for a children's story.
Style: whimsical, educational, age-appropriate, vibrant colors, friendly characters.%s
Art style: storybook illustration, Disney/Pixar style, friendly and engaging.`, safetyGuidelines)
	}
}

func videoStyleInstructions(style string) string {
	if style == VideoStyleCinematic {
		return `
IMPORTANT: This will be rendered as a CINEMATIC LIVE-ACTION style video.
Focus on realistic camera movements, professional cinematography, natural lighting.
Think film-like quality with smooth camera pans, zooms, and professional framing.`
	}
	return `
IMPORTANT: This will be rendered as an ANIMATED style video.
Focus on colorful, playful animation with smooth character movement and fun visuals.
Think Pixar/Disney animation style with vibrant colors and engaging motion.`
}

func (g *promptGenerator) GenerateImagePrompt(ctx context.Context, story, ageGroup string, sceneIndex int, style string) (string, error) {
	g.log.Info("Generating image prompt", "scene_index", sceneIndex, "style", style, "age_group", ageGroup)

	request := fmt.Sprintf(`Based on this student story (Age: %s), generate a detailed visual prompt for image #%d focusing on %s:

Story:
%q

%s

Create a detailed, vivid image prompt that captures this aspect of the story. The prompt should be specific, descriptive, and suitable for a child-friendly image generation model.

Respond with JSON:
{
  "prompt": "Detailed image prompt here..."
}`, ageGroup, sceneIndex, SceneFocus(sceneIndex), story, styleInstructions(style))

	return g.extractPromptField(ctx, request, "prompt")
}

func (g *promptGenerator) GenerateVideoPrompt(ctx context.Context, story, ageGroup, style string) (string, error) {
	g.log.Info("Generating video prompt", "style", style, "age_group", ageGroup)

	request := fmt.Sprintf(`Based on this student story, create a video prompt for %s style (Age: %s):

Story:
%q

%s

Create a detailed, vivid video prompt that captures the essence of the story in %s style.
The prompt should be specific, descriptive, and suitable for a child-friendly video generation model.

Respond with JSON:
{
  "videoActionPrompt": "Detailed action prompt for video generation..."
}`, style, ageGroup, story, videoStyleInstructions(style), style)

	return g.extractPromptField(ctx, request, "videoActionPrompt")
}

// extractPromptField runs the request and pulls the named string field out of
// the JSON response. A missing or empty prompt is an error: downstream
// generation never runs against a placeholder.
func (g *promptGenerator) extractPromptField(ctx context.Context, request, field string) (string, error) {
	raw, err := g.model.GenerateText(ctx, promptSystemInstruction, request)
	if err != nil {
		return "", err
	}
	obj, err := modeljson.ExtractObject(raw)
	if err != nil {
		return "", err
	}
	value, ok := obj[field]
	if !ok || value == nil {
		return "", fmt.Errorf("%w: response has no %q field", apperrors.ErrEmptyPrompt, field)
	}
	text, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q is %T, expected string", apperrors.ErrInvalidPromptType, field, value)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %q field is empty", apperrors.ErrEmptyPrompt, field)
	}
	return text, nil
}
