package commands

import (
	"context"
	"fmt"
	"os"

	"git.home.luguber.info/inful/adocs/internal/pipeline"
)

// PlanCmd implements the 'plan' command.
type PlanCmd struct {
	SourceFlags
}

func (p *PlanCmd) Run(global *Global, root *CLI) error {
	cfg := root.Cfg()
	desc, cleanup, err := p.Resolve(context.Background(), cfg)
	defer cleanup()
	if err != nil {
		return err
	}
	ctrl := &pipeline.Controller{Config: cfg, Logger: global.Logger}
	man, err := ctrl.Plan(desc)
	if err != nil {
		return err
	}
	data, err := man.ToJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(os.Stdout, string(data))
	return err
}
