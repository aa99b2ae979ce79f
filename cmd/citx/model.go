package main

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matsen/citextract/internal/tagger"
	"github.com/matsen/citextract/internal/vocab"
	"github.com/spf13/cobra"
)

var convertForce bool

func init() {
	rootCmd.AddCommand(modelCmd)
	modelCmd.AddCommand(modelInspectCmd)
	modelCmd.AddCommand(modelConvertCmd)
	modelConvertCmd.Flags().BoolVar(&convertForce, "force", false, "Convert even if the weights do not match the model shape")
}

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Inspect and convert model weight files",
}

var modelInspectCmd = &cobra.Command{
	Use:   "inspect [path]",
	Short: "List the tensors of a weight file and check them against the model",
	Long: `List the tensors of a weight file and check their shapes against
the dimensions the tagger expects.

Without a path, the configured model is inspected.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runModelInspect,
}

var modelConvertCmd = &cobra.Command{
	Use:   "convert <in.pth> <out.safetensors>",
	Short: "Convert a torch state dict to safetensors",
	Long: `Convert a torch state dict (.pth/.pt/.bin) to an F32 safetensors file.

Safetensors files load faster and do not require unpickling.`,
	Args: cobra.ExactArgs(2),
	RunE: runModelConvert,
}

// ModelInfo is the response for the model inspect command.
type ModelInfo struct {
	Path     string              `json:"path"`
	Config   tagger.Config       `json:"config"`
	Tensors  []tagger.TensorInfo `json:"tensors"`
	Valid    bool                `json:"valid"`
	Problems []string            `json:"problems,omitempty"`
}

// ConvertResult is the response for the model convert command.
type ConvertResult struct {
	Status  string `json:"status"`
	Path    string `json:"path"`
	Tensors int    `json:"tensors"`
}

// modelConfig is the model shape implied by the built-in vocabulary.
func modelConfig() tagger.Config {
	return tagger.DefaultConfig(vocab.New().Size())
}

// validationProblems flattens a Validate error into one message per problem.
func validationProblems(err error) []string {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var problems []string
		for _, e := range joined.Unwrap() {
			problems = append(problems, e.Error())
		}
		return problems
	}
	return []string{err.Error()}
}

func inspectModel(path string) (ModelInfo, error) {
	ts, err := tagger.ReadTensors(path)
	if err != nil {
		return ModelInfo{}, err
	}
	cfg := modelConfig()
	problems := validationProblems(tagger.Validate(ts, cfg))
	return ModelInfo{
		Path:     path,
		Config:   cfg,
		Tensors:  tagger.Describe(ts, cfg),
		Valid:    len(problems) == 0,
		Problems: problems,
	}, nil
}

func runModelInspect(cmd *cobra.Command, args []string) error {
	path := current.ModelPath
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		exitWithError(ExitConfigError, "%v", errNoModel)
	}

	info, err := inspectModel(path)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	if humanOutput {
		outputHuman("%s\n", info.Path)
		for _, t := range info.Tensors {
			note := ""
			switch {
			case t.Expected == nil:
				note = "  (unused)"
			case !slices.Equal(t.Expected, t.Shape):
				note = fmt.Sprintf("  (expected %v)", t.Expected)
			}
			outputHuman("  %-28s %v%s\n", t.Name, t.Shape, note)
		}
		if info.Valid {
			outputHuman("OK: weights match vocab %d, embed %d, hidden %d, classes %d\n",
				info.Config.VocabSize, info.Config.EmbedDim, info.Config.HiddenSize, info.Config.NumClasses)
		} else {
			outputHuman("INVALID:\n  %s\n", strings.Join(info.Problems, "\n  "))
		}
		return nil
	}

	outputJSON(info)
	return nil
}

func convertModel(in, out string, force bool) (int, error) {
	ts, err := tagger.ReadTensors(in)
	if err != nil {
		return 0, err
	}
	if !force {
		if err := tagger.Validate(ts, modelConfig()); err != nil {
			return 0, fmt.Errorf("weights do not match the model (use --force to convert anyway): %w", err)
		}
	}
	meta := map[string]string{"format": "pt", "source": filepath.Base(in)}
	if err := tagger.SaveSafetensors(out, ts, meta); err != nil {
		return 0, fmt.Errorf("writing %s: %w", out, err)
	}
	return len(ts), nil
}

func runModelConvert(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]
	if strings.ToLower(filepath.Ext(out)) != ".safetensors" {
		exitWithError(ExitError, "output must have a .safetensors extension: %s", out)
	}

	n, err := convertModel(in, out, convertForce)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	if humanOutput {
		outputHuman("Converted %d tensor%s to %s\n", n, plural(n), out)
	} else {
		outputJSON(ConvertResult{Status: "converted", Path: out, Tensors: n})
	}
	return nil
}
