package main

import (
	"github.com/spf13/cobra"

	"ownc/internal/diag"
)

func renderBag(cmd *cobra.Command, bag *diag.Bag, showColor bool) {
	diag.Render(cmd.ErrOrStderr(), bag, diag.RenderOpts{Color: showColor, ShowNotes: true})
}
