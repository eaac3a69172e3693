// Command multiblend-selfupdate checks GitHub releases for a newer
// multiblend build and replaces the installed binary, the way the
// teacher's pkg/cli/update.go does for its own tool. It is kept out of the
// core multiblend binary so that binary's flag set stays exactly the
// authoritative, exhaustive list spec.md §6 defines.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"regexp"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"

	"github.com/quietpixel/multiblend/internal/cliversion"
)

const repo = "quietpixel/multiblend"

func main() {
	if err := checkForUpdates(); err != nil {
		fmt.Fprintf(os.Stderr, "multiblend-selfupdate: %v\n", err)
		os.Exit(1)
	}
}

func checkForUpdates() error {
	latest, found, err := detectLatestRelease(repo)
	fmt.Printf("Current version: %s\n", cliversion.Current())
	if err != nil {
		return fmt.Errorf("update check failed: %w", err)
	}
	if !found || latest == nil {
		fmt.Printf("No releases found for %s.\n", repo)
		return nil
	}

	fmt.Printf("Latest version: %s\n", latest.Version)

	if latest.Version.Equals(cliversion.Current()) {
		fmt.Printf("You are already running the latest version: %s.\n", cliversion.Current())
		return nil
	}

	if latest.AssetURL == "" {
		fmt.Printf("A new version (%s) is available but there is no downloadable asset.\n", latest.Version)
		fmt.Println("Please visit the project releases page to download the new version.")
		return nil
	}

	answer, err := promptLine(fmt.Sprintf("A new version (%s) is available. Update now? (y/N): ", latest.Version))
	if err != nil {
		return fmt.Errorf("failed reading input: %w", err)
	}
	answer = strings.TrimSpace(strings.ToLower(answer))
	if answer != "y" && answer != "yes" {
		fmt.Println("Update cancelled.")
		return nil
	}

	fmt.Println("Updating...")
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("could not locate executable: %w", err)
	}

	if err := selfupdate.UpdateTo(latest.AssetURL, exe); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	argv := append([]string{exe}, os.Args[1:]...)
	if err := syscall.Exec(exe, argv, os.Environ()); err != nil {
		cmd := exec.Command(exe, os.Args[1:]...)
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if startErr := cmd.Start(); startErr != nil {
			fmt.Printf("Updated to version %s, but failed to restart automatically: %v; fallback start error: %v\n", latest.Version, err, startErr)
			fmt.Println("Please restart the application manually.")
			return nil
		}
		os.Exit(0)
	}
	return nil
}

func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return line, nil
}

// detectLatestRelease queries the GitHub Releases API directly and returns
// the highest published, non-prerelease semver tag it can find, tolerant
// of tag-naming variance (with or without a leading "v").
func detectLatestRelease(repo string) (*selfupdate.Release, bool, error) {
	apiURL := fmt.Sprintf("https://api.github.com/repos/%s/releases", repo)
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(apiURL)
	if err != nil {
		return nil, false, fmt.Errorf("github API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, false, fmt.Errorf("github API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed reading github response: %w", err)
	}

	var releases []struct {
		TagName    string `json:"tag_name"`
		Name       string `json:"name"`
		Draft      bool   `json:"draft"`
		Prerelease bool   `json:"prerelease"`
		Assets     []struct {
			Name               string `json:"name"`
			BrowserDownloadURL string `json:"browser_download_url"`
		} `json:"assets"`
	}
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, false, fmt.Errorf("failed to decode github releases: %w", err)
	}

	type candidate struct {
		ver      semver.Version
		assetURL string
	}

	var candidates []candidate
	semverRe := regexp.MustCompile(`v?\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?`)

	for _, r := range releases {
		if r.Draft || r.Prerelease {
			continue
		}
		match := semverRe.FindString(r.TagName)
		if match == "" {
			match = semverRe.FindString(r.Name)
			if match == "" {
				continue
			}
		}
		v, perr := semver.Parse(strings.TrimPrefix(match, "v"))
		if perr != nil {
			continue
		}
		assetURL := ""
		for _, a := range r.Assets {
			nameLower := strings.ToLower(a.Name)
			if strings.Contains(nameLower, "darwin") || strings.Contains(nameLower, "linux") || strings.Contains(nameLower, "windows") || strings.Contains(nameLower, "amd64") || strings.Contains(nameLower, "arm64") {
				assetURL = a.BrowserDownloadURL
				break
			}
			if assetURL == "" {
				assetURL = a.BrowserDownloadURL
			}
		}
		candidates = append(candidates, candidate{ver: v, assetURL: assetURL})
	}

	if len(candidates) == 0 {
		return nil, false, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ver.GT(candidates[j].ver)
	})
	best := candidates[0]
	return &selfupdate.Release{Version: best.ver, AssetURL: best.assetURL}, true, nil
}
