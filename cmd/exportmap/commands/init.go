package commands

import (
	"fmt"
	"io"
	"path/filepath"

	"git.home.luguber.info/inful/exportmap/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force  bool   `help:"Overwrite existing configuration file"`
	Output string `short:"o" name:"output" help:"Directory to write exportmap.yaml into"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	if i.Output != "" {
		return RunInit(g.out(), filepath.Join(i.Output, "exportmap.yaml"), i.Force)
	}
	return RunInit(g.out(), root.Config, i.Force)
}

// RunInit writes the example configuration to configPath.
func RunInit(w io.Writer, configPath string, force bool) error {
	_, _ = fmt.Fprintf(w, "Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w, "initialized successfully")
	return nil
}
