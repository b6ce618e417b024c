// Package synthesis merges transcripts into the daily note body.
package synthesis

import (
	"context"
	"errors"
	"io/fs"
	"strings"

	"daily-memo-go/internal/apperr"
	"daily-memo-go/internal/logger"
	"daily-memo-go/internal/llm"
	"daily-memo-go/internal/types"
	"github.com/sirupsen/logrus"
)

// SystemInstruction constrains the generator to filling in the template.
const SystemInstruction = `You are a markdown note generator for obsidian.md second brains.
Respond with pure markdown content only, without code blocks, HTML or annotations.
Keep the structure of the template exactly as it is: do not add, remove, rename or reorder headings, sections or list items.
Only use markdown that Obsidian renders natively.
Fill the template placeholders with information from the transcripts. Do not add information that is not in the transcripts, and do not drop or alter any information they contain.`

const transcriptSeparator = "\n\n---\n\n"

type Reader interface {
	Read(path string) ([]byte, error)
}

// LoadTemplate reads the note template from the vault.
func LoadTemplate(r Reader, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", &apperr.TemplateNotFoundError{}
	}
	data, err := r.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &apperr.TemplateNotFoundError{Path: path, Err: err}
		}
		return "", err
	}
	return string(data), nil
}

// BuildPrompt is the user message sent with SystemInstruction.
func BuildPrompt(template string, transcripts []string) string {
	var sb strings.Builder
	sb.WriteString("Create a daily note based on this template and the transcripts. ")
	sb.WriteString("Keep the markdown formatting from the template but fill it with relevant information from the transcripts.\n\n")
	sb.WriteString("Template:\n")
	sb.WriteString(template)
	sb.WriteString("\n\nTranscripts:\n")
	sb.WriteString(strings.Join(transcripts, transcriptSeparator))
	return sb.String()
}

type Synthesizer struct {
	Templates    Reader
	TemplatePath string
	Generator    llm.Generator
	Credential   string
	// Offline skips the generator and uses the template as the body.
	Offline    bool
	DateFormat string
	Log        *logger.Logger
}

// Preflight reports a missing generator credential. Offline mode needs none.
func (s *Synthesizer) Preflight() error {
	if s.Offline || s.Credential != "" {
		return nil
	}
	return apperr.MissingCredential("generator")
}

// Synthesize returns the complete note: generated body followed by the
// collapsible transcripts section.
func (s *Synthesizer) Synthesize(ctx context.Context, transcripts []types.Transcript) (string, error) {
	log := s.Log.WithComponent("synthesis")
	template, err := LoadTemplate(s.Templates, s.TemplatePath)
	if err != nil {
		return "", err
	}

	var texts []string
	for _, t := range transcripts {
		if !t.Failed() {
			texts = append(texts, t.Text)
		}
	}

	var body string
	if s.Offline {
		log.Info("offline mode, using template without generation")
		body = strings.TrimSpace(template)
	} else {
		if err := s.Preflight(); err != nil {
			return "", err
		}
		prompt := BuildPrompt(template, texts)
		log.WithFields(logrus.Fields{
			"transcripts":  len(texts),
			"prompt_chars": len(prompt),
		}).Info("generating note body")
		body, err = s.Generator.Complete(ctx, SystemInstruction, prompt, s.Credential)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(body) == "" {
			return "", &apperr.EmptyGenerationError{Backend: "generator"}
		}
	}

	return strings.TrimRight(body, "\n") + "\n\n" + RenderTranscripts(transcripts, s.DateFormat), nil
}
