//go:build onnx

package main

import (
	"log"

	"github.com/becomeliminal/recall-go-sdk/config"
	"github.com/becomeliminal/recall-go-sdk/memory"
	"github.com/becomeliminal/recall-go-sdk/memory/embedder/onnx"
)

func newONNXEmbedder(cfg config.EmbedderConfig) (memory.Embedder, func(), error) {
	embedder, err := onnx.New(onnx.Config{
		ModelPath:     cfg.ModelPath,
		TokenizerPath: cfg.Tokenizer,
		Dimensions:    cfg.Dimensions,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := embedder.Close(); err != nil {
			log.Printf("close onnx embedder: %v", err)
		}
	}
	return embedder, cleanup, nil
}
