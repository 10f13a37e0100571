package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/TuftsBCB/phylo/jplace"
	"github.com/TuftsBCB/phylo/newick"
	"github.com/TuftsBCB/phylo/tree"
)

const usage = `tree-dump - inspect phylogenetic tree files

Usage:
  tree-dump [options]

Options:
  -h, --help          Show this help message
  --input <file>      Input file (defaults to stdin)
  --output <file>     Output file (defaults to stdout)
  --format <fmt>      Output format: yaml (default) or json
  --jplace            Treat the input as a jplace placement document
  --metadata          Extract '&'-comment metadata into annotations
  --weights           Interpret [&W ...] tree weight comments

Examples:
  tree-dump --input trees.nwk
  tree-dump --format json < trees.nwk
  tree-dump --jplace --input placements.jplace
`

// summary is the per-tree document emitted to the output stream.
type summary struct {
	Label      string        `yaml:"label,omitempty" json:"label,omitempty"`
	Rootedness string        `yaml:"rootedness" json:"rootedness"`
	Weight     *float64      `yaml:"weight,omitempty" json:"weight,omitempty"`
	Leaves     []leafSummary `yaml:"leaves" json:"leaves"`
	Newick     string        `yaml:"newick" json:"newick"`
}

type leafSummary struct {
	Label  string   `yaml:"label" json:"label"`
	Length *float64 `yaml:"length,omitempty" json:"length,omitempty"`
}

func main() {
	var showHelp, asJplace, withMetadata, withWeights bool
	var inputFile, outputFile, format string

	flag.BoolVar(&showHelp, "h", false, "Show help")
	flag.BoolVar(&showHelp, "help", false, "Show help")
	flag.BoolVar(&asJplace, "jplace", false, "Input is a jplace document")
	flag.BoolVar(&withMetadata, "metadata", false, "Extract comment metadata")
	flag.BoolVar(&withWeights, "weights", false, "Interpret tree weight comments")
	flag.StringVar(&inputFile, "input", "", "Input file (defaults to stdin)")
	flag.StringVar(&outputFile, "output", "", "Output file (defaults to stdout)")
	flag.StringVar(&format, "format", "yaml", "Output format: yaml or json")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
	}
	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if format != "yaml" && format != "json" {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q (want yaml or json)\n", format)
		os.Exit(1)
	}

	input := io.Reader(os.Stdin)
	if inputFile != "" {
		f, err := os.Open(inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening input file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		input = f
	}

	output := io.Writer(os.Stdout)
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		output = f
	}

	trees, err := readTrees(input, asJplace, withMetadata, withWeights)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, t := range trees {
		if err := dump(output, t, format); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
	}
}

func readTrees(r io.Reader, asJplace, withMetadata, withWeights bool) ([]*tree.Tree, error) {
	if asJplace {
		doc, err := jplace.Read(r)
		if err != nil {
			return nil, err
		}
		return []*tree.Tree{doc.Tree}, nil
	}
	cfg := newick.DefaultConfig()
	cfg.ExtractMetadata = withMetadata
	cfg.StoreTreeWeights = withWeights
	rd := newick.NewReader(r, cfg)
	defer rd.Close()
	return rd.ReadAll()
}

func dump(w io.Writer, t *tree.Tree, format string) error {
	s := summary{
		Label:      t.Label,
		Rootedness: t.Rootedness.String(),
		Weight:     t.Weight,
		Newick:     newick.String(t),
	}
	for _, leaf := range t.Leaves() {
		ls := leafSummary{Label: leaf.Label}
		if leaf.Taxon != nil {
			ls.Label = leaf.Taxon.Label()
		}
		if leaf.Edge != nil {
			ls.Length = leaf.Edge.Length
		}
		s.Leaves = append(s.Leaves, ls)
	}

	if format == "json" {
		enc, err := json.Marshal(s)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(enc))
		return err
	}
	enc, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "---\n%s", enc)
	return err
}
