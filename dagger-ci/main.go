// CI pipeline of the AIPlan editor server
//
// Builds multi-arch images of the editor server, runs module tests and
// generates markdown references (api errors, attributes and commands).

package main

import (
	"context"
	"dagger/aiplan/internal/dagger"
	"fmt"
)

type Aiplan struct{}

func (m *Aiplan) GoBuildEnv(source *dagger.Directory) *dagger.Container {
	goCache := dag.CacheVolume("go")
	return dag.Container().
		From("golang:alpine").
		WithDirectory("/src", source).
		WithWorkdir("/src").
		WithEnvVariable("GOOS", "linux").
		WithMountedCache("/go/pkg/mod", goCache).
		WithExec([]string{"apk", "add", "curl"}).
		WithExec([]string{"go", "mod", "tidy"})
}

// Test runs module tests with race detector
func (m *Aiplan) Test(ctx context.Context, source *dagger.Directory) (string, error) {
	return m.GoBuildEnv(source).
		WithEnvVariable("CGO_ENABLED", "1").
		WithExec([]string{"apk", "add", "build-base"}).
		WithExec([]string{"go", "test", "-race", "./..."}).
		Stdout(ctx)
}

// Docs generates api errors and editor reference
func (m *Aiplan) Docs(source *dagger.Directory) *dagger.Directory {
	return m.GoBuildEnv(source).
		WithExec([]string{"mkdir", "-p", "/docs"}).
		WithExec([]string{"go", "run", "./cmd/docsgen", "-out", "/docs/api_error.md", "-ref", "/docs/editor_reference.md"}).
		Directory("/docs")
}

func (m *Aiplan) BackEnv(platform dagger.Platform, appBin *dagger.File, docs *dagger.Directory) *dagger.Container {
	return dag.Container(dagger.ContainerOpts{
		Platform: platform,
	}).
		From("alpine").
		WithEnvVariable("TZ", "Europe/Moscow").
		WithExec([]string{"apk", "add", "curl"}).
		WithExec([]string{"apk", "add", "--no-cache", "tzdata"}).
		WithWorkdir("/app").
		WithFile("/app/app", appBin).
		WithDirectory("/app/docs", docs).
		WithEnvVariable("HTTP_ADDR", ":8080").
		WithExposedPort(8080).
		WithEntrypoint([]string{"/app/app"})
}

func (m *Aiplan) Build(version string, source *dagger.Directory) []*dagger.Container {
	buildMatrix := []struct {
		Arch     string
		BinName  string
		Platform dagger.Platform
	}{
		{
			Arch:     "amd64",
			BinName:  "/build/aiplan-editor-linux",
			Platform: dagger.Platform("linux/amd64"),
		},
		{
			Arch:     "arm64",
			BinName:  "/build/aiplan-editor-linux-arm64",
			Platform: dagger.Platform("linux/arm64/v8"),
		},
	}

	docs := m.Docs(source)

	var images []*dagger.Container
	for _, buildParam := range buildMatrix {
		builder := m.GoBuildEnv(source).
			WithEnvVariable("GOARCH", buildParam.Arch).
			WithExec([]string{"go", "build", "-o", buildParam.BinName, "-ldflags", fmt.Sprintf("-s -w -X main.version=%s", version), "./cmd/editor-server"})

		image := m.BackEnv(
			buildParam.Platform,
			builder.File(buildParam.BinName),
			docs,
		).
			WithLabel("org.opencontainers.image.source", "https://github.com/aisa-it/aiplan").
			WithLabel("org.opencontainers.image.licenses", "MPL-2.0").
			WithAnnotation("org.opencontainers.image.source", "https://github.com/aisa-it/aiplan")
		images = append(images, image)
	}
	return images
}

func (m *Aiplan) Publish(
	ctx context.Context,
	images []*dagger.Container,
	registrySecret *dagger.Secret,
	registryUser string,
	imageName string,
) (string, error) {
	registry := dag.Container().
		WithRegistryAuth("ghcr.io", registryUser, registrySecret)

	return registry.
		Publish(ctx, "ghcr.io/"+imageName, dagger.ContainerPublishOpts{PlatformVariants: images})
}

func (m *Aiplan) Export(
	ctx context.Context,
	images []*dagger.Container,
	imageName string,
) (string, error) {
	return dag.Container().
		Export(ctx, imageName, dagger.ContainerExportOpts{PlatformVariants: images})
}

func (m *Aiplan) BuildLocal(ctx context.Context, name string, source *dagger.Directory) (string, error) {
	return m.Export(ctx, m.Build("v0.1.0", source), name)
}

func (m *Aiplan) BuildApp(ctx context.Context, version string, source *dagger.Directory,
	registrySecret *dagger.Secret,
	registryUser string,
	imageName string,
) error {
	if _, err := m.Test(ctx, source); err != nil {
		return fmt.Errorf("tests failed: %w", err)
	}

	back := m.Build(version, source)

	for _, tag := range []string{version, "latest"} {
		ref, err := m.Publish(ctx, back, registrySecret, registryUser, fmt.Sprintf("%s:%s", imageName, tag))
		if err != nil {
			return err
		}
		fmt.Println(ref)
	}
	return nil
}
