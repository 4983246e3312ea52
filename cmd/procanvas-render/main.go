// procanvas-render renders a saved process document as a diagram.
// Run: go run ./cmd/procanvas-render -format mermaid process.json
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/vantagerisk/procanvas/internal/diagram"
	"github.com/vantagerisk/procanvas/internal/persist"
	"github.com/vantagerisk/procanvas/internal/validation"
)

func main() {
	format := flag.String("format", "mermaid", "output format: mermaid, dot or png")
	out := flag.String("o", "", "output file (default stdout; required for png)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: procanvas-render [-format mermaid|dot|png] [-o file] <document.json>")
		os.Exit(2)
	}

	raw, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "read document: %v\n", err)
		os.Exit(1)
	}

	codec, err := persist.NewCodec()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init codec: %v\n", err)
		os.Exit(1)
	}
	g, _, err := codec.Decode(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "decode document: %v\n", err)
		os.Exit(1)
	}

	// Overlay validation issues so problem steps stand out. A missing
	// catalog just means rule references warn instead of resolving.
	validator, err := validation.NewProcessValidator(nil, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init validator: %v\n", err)
		os.Exit(1)
	}
	result := validator.Validate(g)

	model := diagram.Build(g, diagram.BuildOptions{Result: result})

	switch *format {
	case "mermaid":
		writeText(*out, diagram.RenderMermaid(model))
	case "dot":
		writeText(*out, diagram.RenderDOT(model))
	case "png":
		if *out == "" {
			fmt.Fprintln(os.Stderr, "png output requires -o")
			os.Exit(2)
		}
		png, err := diagram.RenderImage(model)
		if err != nil {
			fmt.Fprintf(os.Stderr, "render png: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, png, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write png: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("written: %s (%d bytes)\n", *out, len(png))
	default:
		fmt.Fprintf(os.Stderr, "unknown format %q\n", *format)
		os.Exit(2)
	}
}

func writeText(path, content string) {
	if path == "" {
		fmt.Print(content)
		return
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		os.Exit(1)
	}
}
