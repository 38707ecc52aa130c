package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	containerTypes "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

const (
	composeFileName    = "docker-compose.yml"
	projectRootRelPath = "../.."
)

var colorPalette = []*color.Color{
	color.New(color.FgCyan),
	color.New(color.FgGreen),
	color.New(color.FgYellow),
	color.New(color.FgBlue),
	color.New(color.FgMagenta),
	color.New(color.FgRed),
}

// ComposeConfig is the subset of docker-compose.yml we care about.
type ComposeConfig struct {
	Services map[string]interface{} `yaml:"services"`
}

func main() {
	// 1. Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutting down log streamer...")
		cancel()
	}()

	// 2. Docker client
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		log.Fatalf("❌ Failed to create Docker client: %v", err)
	}
	defer func() {
		if err := cli.Close(); err != nil {
			log.Printf("⚠️  Error closing Docker client: %v", err)
		}
	}()

	// 3. Service names come from docker-compose.yml
	composePath := filepath.Join(projectRootRelPath, composeFileName)
	composeFile, err := os.ReadFile(composePath)
	if err != nil {
		log.Fatalf("❌ Failed to read %s: %v", composePath, err)
	}

	var composeCfg ComposeConfig
	if err := yaml.Unmarshal(composeFile, &composeCfg); err != nil {
		log.Fatalf("❌ Failed to parse docker-compose.yml: %v", err)
	}

	// 4. One streaming goroutine per service
	var wg sync.WaitGroup
	i := 0
	log.Println("Starting log streams...")
	for serviceName := range composeCfg.Services {
		wg.Add(1)
		serviceColor := colorPalette[i%len(colorPalette)]
		i++
		go func(name string, c *color.Color) {
			defer wg.Done()
			streamServiceLogs(ctx, cli, name, c)
		}(serviceName, serviceColor)
	}

	wg.Wait()
	log.Println("All log streams stopped.")
}

func streamServiceLogs(ctx context.Context, cli *client.Client, serviceName string, c *color.Color) {
	containers, err := cli.ContainerList(ctx, containerTypes.ListOptions{All: false})
	if err != nil {
		log.Printf("⚠️  %s: failed to list containers: %v", serviceName, err)
		return
	}

	var containerID string
	for _, ct := range containers {
		for _, name := range ct.Names {
			if name == "/"+serviceName {
				containerID = ct.ID
			}
		}
	}
	if containerID == "" {
		log.Printf("⚠️  %s: no running container found", serviceName)
		return
	}

	reader, err := cli.ContainerLogs(ctx, containerID, containerTypes.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
		Tail:       "10",
	})
	if err != nil {
		log.Printf("⚠️  %s: failed to attach to logs: %v", serviceName, err)
		return
	}
	defer reader.Close()

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
			fmt.Println(c.Sprintf("[%s] ", serviceName) + scanner.Text())
		}
	}
}
