//go:build !onnx

package main

import (
	"fmt"

	"github.com/becomeliminal/recall-go-sdk/config"
	"github.com/becomeliminal/recall-go-sdk/memory"
)

func newONNXEmbedder(config.EmbedderConfig) (memory.Embedder, func(), error) {
	return nil, nil, fmt.Errorf("onnx embedder requires building with -tags onnx")
}
