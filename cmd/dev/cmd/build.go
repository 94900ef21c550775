package cmd

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gophertribe/devtool/build"
)

const (
	buildOutput  = "dist/onewire"
	buildPackage = "./cmd/onewire"
	builderImage = "gophertribe/gobuild:1.25-bookworm"
)

type buildTarget struct {
	os, arch           string
	crossOS, crossArch string
}

// native reports whether the target can be built by the local toolchain. A
// cross target is built natively only inside the builder container, which is
// started with the cross flags set.
func (t buildTarget) native() bool {
	return t.os == runtime.GOOS && t.arch == runtime.GOARCH
}

// BuildCmd builds the cli. karalabe/hid needs cgo, so builds for another
// platform run in a cross-compiling container that calls this command again.
func BuildCmd() *cobra.Command {
	var target buildTarget
	var noCache bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the onewire cli into " + buildOutput,
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := cmd.Flags().GetString("version")
			if err != nil {
				return fmt.Errorf("could not get version flag: %w", err)
			}
			if target.native() {
				goos, goarch := target.os, target.arch
				if target.crossOS != "" && target.crossArch != "" {
					goos, goarch = target.crossOS, target.crossArch
				}
				slog.Info("building", "package", buildPackage, "os", goos, "arch", goarch, "version", version)
				return build.GoBuild(buildOutput, buildPackage, build.GoBuildOpts{
					Version:       version,
					InjectVersion: true,
					ConfigPackage: "main",
					EnableCgo:     true,
					OS:            goos,
					Arch:          goarch,
				})
			}
			slog.Info("building in container", "image", builderImage, "os", target.os, "arch", target.arch)
			return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", target.os, target.arch),
				[]string{"build", "--version", version, "--cross-os", target.crossOS, "--cross-arch", target.crossArch},
				build.DockerBuildOpts{
					NoCache: noCache,
					Image:   builderImage,
				})
		},
	}
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "do not use the docker build cache")
	cmd.Flags().StringVar(&target.os, "os", runtime.GOOS, "os to build for")
	cmd.Flags().StringVar(&target.arch, "arch", runtime.GOARCH, "arch to build for")
	cmd.Flags().StringVar(&target.crossOS, "cross-os", "", "os to cross-compile for inside the builder")
	cmd.Flags().StringVar(&target.crossArch, "cross-arch", "", "arch to cross-compile for inside the builder")
	return cmd
}
