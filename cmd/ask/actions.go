package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"askgemini/internal/config"
	"askgemini/internal/gemini"
	"askgemini/internal/session"
)

// defaultImageModel is used for --generate when --model is not given; the
// configured text model usually cannot emit images.
const defaultImageModel = "gemini-2.0-flash-preview-image-generation"

func runListModels(ctx context.Context, sess *session.Session) error {
	models, err := sess.Client().ListModels(ctx)
	if err != nil {
		return err
	}

	for _, m := range models {
		name := strings.TrimPrefix(m.Name, "models/")
		if m.DisplayName != "" {
			fmt.Printf("%-40s %s\n", name, m.DisplayName)
		} else {
			fmt.Println(name)
		}
	}
	return nil
}

func runGenerateImage(ctx context.Context, sess *session.Session, cfg *config.Config, promptText string) error {
	model := cfg.Model
	if modelFlag == "" {
		model = defaultImageModel
	}

	raw, mimeType, err := sess.Client().GenerateImage(ctx, model, promptText)
	if err != nil {
		return err
	}

	outPath := imageOutput
	if outPath == "" {
		outPath = "generated" + gemini.ExtensionForMIME(mimeType)
	}
	if err := os.WriteFile(outPath, raw, 0644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}

	fmt.Printf("Image saved to %s (%s, %d bytes)\n", outPath, mimeType, len(raw))
	return nil
}
