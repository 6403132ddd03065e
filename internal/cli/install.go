package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nixydotdev/nixy/internal/logging"
	"github.com/nixydotdev/nixy/internal/nix"
	"github.com/nixydotdev/nixy/internal/nixhub"
	"github.com/nixydotdev/nixy/internal/state"
	"github.com/nixydotdev/nixy/internal/ui"
)

var (
	installPlatforms []string
	installForce     bool
)

var installCmd = &cobra.Command{
	Use:     "install <package>[@version] | <flake-url>[#package] ...",
	Aliases: []string{"add"},
	Short:   "Install packages from nixpkgs or a flake",
	Long: `Install one or more packages into the active profile.

Plain names are resolved through Nixhub; "name@version" pins the package to
a specific nixpkgs commit carrying that version. Arguments containing ':'
are treated as flake references (github:user/repo, path:/some/dir), with an
optional '#package' fragment naming the output to install.`,
	Example: `  # Latest version from nixpkgs
  nixy install ripgrep

  # A pinned version
  nixy install nodejs@20

  # Several at once
  nixy install ripgrep fd bat

  # Restrict to some platforms
  nixy install --platform darwin raycast

  # From a flake
  nixy install github:nix-community/neovim-nightly-overlay#neovim`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInstall(args)
	},
}

func init() {
	installCmd.Flags().StringArrayVarP(&installPlatforms, "platform", "p", nil,
		"restrict to platforms (darwin, linux, or a system like aarch64-darwin); repeatable")
	installCmd.Flags().BoolVar(&installForce, "force", false,
		"overwrite a flake.nix that was not generated by nixy")
}

func runInstall(specs []string) error {
	// Platform names are validated before anything is mutated.
	platforms, err := state.NormalizePlatforms(installPlatforms)
	if err != nil {
		return err
	}

	store, err := loadStore()
	if err != nil {
		return err
	}
	flakeDir, err := activeFlakeDir(store)
	if err != nil {
		return err
	}
	if err := guardManagedFlake(flakeDir, installForce); err != nil {
		return err
	}

	active := store.ActiveState()
	snapshot := store.Clone()

	var flakeSpecs, registrySpecs []string
	for _, spec := range specs {
		if strings.Contains(spec, ":") {
			flakeSpecs = append(flakeSpecs, spec)
		} else {
			registrySpecs = append(registrySpecs, spec)
		}
	}

	added, err := addFlakePackages(active, flakeSpecs, platforms)
	if err != nil {
		return err
	}
	resolved, err := addRegistryPackages(active, registrySpecs, platforms)
	if err != nil {
		return err
	}
	added = append(added, resolved...)

	if len(added) == 0 {
		return nil
	}

	if err := store.Save(cfg.NixyJSON); err != nil {
		return err
	}

	ui.Info(fmt.Sprintf("Installing %s...", strings.Join(added, ", ")))
	return finishTransaction(store, snapshot, flakeDir)
}

// addRegistryPackages resolves plain specs through Nixhub and records them
// in the profile. Already-installed names are skipped with a notice.
func addRegistryPackages(active *state.PackageState, specs []string, platforms []string) ([]string, error) {
	var pending []nixhub.PackageSpec
	for _, raw := range specs {
		spec := nixhub.ParseSpec(raw)
		if active.HasPackage(spec.Name) {
			ui.Success(fmt.Sprintf("Package '%s' is already installed", spec.Name))
			continue
		}
		pending = append(pending, spec)
	}
	if len(pending) == 0 {
		return nil, nil
	}

	system, err := nix.CurrentSystem()
	if err != nil {
		return nil, err
	}
	client := nixhub.NewClient()
	log := logging.GetLogger("install")

	var progress *ui.Progress
	if len(pending) > 1 {
		progress = ui.NewProgress(len(pending))
		progress.Start()
	}

	var added []string
	for _, spec := range pending {
		version := spec.Version
		if version == "" {
			version = "latest"
		}

		if progress != nil {
			progress.SetCurrent(spec.Name)
		} else {
			ui.Info(fmt.Sprintf("Resolving %s@%s via Nixhub...", spec.Name, version))
		}

		resolved, err := client.ResolveForSystem(spec.Name, version, system)
		if err != nil {
			if progress != nil {
				progress.Finish()
			}
			return nil, err
		}

		commit := resolved.CommitHash[:min(8, len(resolved.CommitHash))]
		if progress != nil {
			progress.Increment()
			log.Debug().Str("package", resolved.Name).Str("version", resolved.Version).
				Str("commit", commit).Msg("resolved")
		} else {
			ui.Info(fmt.Sprintf("Found %s version %s (commit %s)", resolved.Name, resolved.Version, commit))
		}

		versionSpec := ""
		if spec.HasVersion {
			versionSpec = spec.Version
		}
		active.AddResolvedPackage(state.ResolvedPackage{
			Name:            resolved.Name,
			VersionSpec:     versionSpec,
			ResolvedVersion: resolved.Version,
			AttributePath:   resolved.AttributePath,
			CommitHash:      resolved.CommitHash,
			Platforms:       platforms,
		})
		added = append(added, resolved.Name)
	}

	if progress != nil {
		progress.Finish()
	}
	return added, nil
}

// addFlakePackages validates flake references and records them as custom
// packages.
func addFlakePackages(active *state.PackageState, specs []string, platforms []string) ([]string, error) {
	var added []string
	for _, spec := range specs {
		flakeURL, pkg, found := strings.Cut(spec, "#")
		if !found {
			// No fragment: the flake is expected to export a package named
			// after its last path component, which nixy also uses as the
			// human-readable name.
			pkg = derivePackageNameFromURL(spec)
			flakeURL = spec
		}

		if active.HasPackage(pkg) {
			ui.Success(fmt.Sprintf("Package '%s' is already installed", pkg))
			continue
		}

		ui.Info(fmt.Sprintf("Using flake URL: %s", flakeURL))
		inputName := deriveInputNameFromURL(flakeURL)

		ui.Info(fmt.Sprintf("Validating package '%s' in %s...", pkg, inputName))
		pkgOutput, err := nix.ValidateFlakePackage(flakeURL, pkg)
		if err != nil {
			return nil, err
		}
		if pkgOutput == "" {
			available, _ := nix.ListFlakePackages(flakeURL, "")
			if len(available) == 0 {
				return nil, fmt.Errorf("package '%s' not found in flake '%s'", pkg, inputName)
			}
			if len(available) > 10 {
				available = available[:10]
			}
			return nil, fmt.Errorf("Package '%s' not found in '%s'. Available packages: %s...",
				pkg, inputName, strings.Join(available, " "))
		}

		active.AddCustomPackage(state.CustomPackage{
			Name:          pkg,
			InputName:     inputName,
			InputURL:      flakeURL,
			PackageOutput: pkgOutput,
			Platforms:     platforms,
		})
		added = append(added, pkg)
	}
	return added, nil
}

// sanitizeInputName maps arbitrary text to a valid flake input name.
func sanitizeInputName(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// derivePackageNameFromURL takes the last path component of a flake URL:
// "github:user/repo" yields "repo", "path:./foo/bar" yields "bar".
func derivePackageNameFromURL(url string) string {
	path := url
	if _, rest, found := strings.Cut(url, ":"); found {
		path = rest
	}
	path = strings.TrimRight(path, "/")
	name := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		name = path[i+1:]
	}
	name = strings.TrimSuffix(name, ".git")
	if name == "" {
		return "default"
	}
	return sanitizeInputName(name)
}

// deriveInputNameFromURL builds an "owner-repo" style input name.
func deriveInputNameFromURL(url string) string {
	parts := strings.Split(url, "/")
	if len(parts) >= 2 {
		owner := parts[len(parts)-2]
		repo := strings.TrimSuffix(parts[len(parts)-1], ".git")
		return sanitizeInputName(owner + "-" + repo)
	}
	return "custom-flake"
}
