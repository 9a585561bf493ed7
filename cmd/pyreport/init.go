package main

import (
	"fmt"

	"git.home.luguber.info/inful/pyreport/internal/config"
)

// InitCmd implements `pyreport init`.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	if err := config.Init(root.Config, i.Force); err != nil {
		return err
	}
	fmt.Printf("wrote configuration to %s\n", root.Config)
	return nil
}
