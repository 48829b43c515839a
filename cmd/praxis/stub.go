package main

import (
	"github.com/spf13/cobra"

	"github.com/ehr/praxis/internal/platform/stub"
)

func stubCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stub",
		Short: "In-memory development API",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the development API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := stub.New(a.registry, stub.Options{
				SigningKey:     []byte(a.cfg.StubTokenSecret),
				Credentials:    stub.Credentials{Username: a.cfg.StubUsername, Password: a.cfg.StubPassword},
				Seed:           a.cfg.StubSeed,
				RequestTimeout: a.cfg.RequestTimeout,
			}, a.logger)
			return srv.Run(cmd.Context(), a.cfg.StubAddr())
		},
	})
	return cmd
}
