// Package cache stores rendered plot SVGs on disk, keyed by analysis.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

type SVGCache struct {
	cacheDir    string
	maxAnalyses int
}

func NewSVGCache(cacheDir string, maxAnalyses int) (*SVGCache, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &SVGCache{
		cacheDir:    cacheDir,
		maxAnalyses: maxAnalyses,
	}, nil
}

func (c *SVGCache) analysisDir(analysisID int64) string {
	return filepath.Join(c.cacheDir, fmt.Sprintf("analysis-%d", analysisID))
}

func (c *SVGCache) svgPath(analysisID int64, plotKey string) string {
	hash := sha256.Sum256([]byte(plotKey))
	filename := hex.EncodeToString(hash[:8]) + ".svg"
	return filepath.Join(c.analysisDir(analysisID), filename)
}

func (c *SVGCache) Get(analysisID int64, plotKey string) ([]byte, bool) {
	path := c.svgPath(analysisID, plotKey)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *SVGCache) Put(analysisID int64, plotKey string, svg []byte) error {
	dir := c.analysisDir(analysisID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create analysis cache dir: %w", err)
	}

	path := c.svgPath(analysisID, plotKey)
	tmp, err := os.CreateTemp(dir, "svg-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp svg: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if err := tmp.Chmod(0644); err != nil {
		return fmt.Errorf("chmod temp svg: %w", err)
	}
	if n, err := tmp.Write(svg); err != nil {
		return fmt.Errorf("write temp svg: %w", err)
	} else if n < len(svg) {
		return fmt.Errorf("write temp svg: short write")
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp svg: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(path)
		if err := os.Rename(tmp.Name(), path); err != nil {
			return fmt.Errorf("rename svg: %w", err)
		}
	}
	return nil
}

// GetOrGenerate returns the cached SVG for the analysis, rendering and
// storing it on a miss. Cache write failures are not fatal.
func (c *SVGCache) GetOrGenerate(analysisID int64, plotKey string, generate func() ([]byte, error)) ([]byte, error) {
	if svg, ok := c.Get(analysisID, plotKey); ok {
		return svg, nil
	}

	svg, err := generate()
	if err != nil {
		return nil, err
	}

	_ = c.Put(analysisID, plotKey, svg)

	return svg, nil
}

func (c *SVGCache) PruneOldAnalyses(keepAnalysisIDs []int64) error {
	if c.maxAnalyses > 0 && len(keepAnalysisIDs) > c.maxAnalyses {
		sort.Slice(keepAnalysisIDs, func(i, j int) bool {
			return keepAnalysisIDs[i] > keepAnalysisIDs[j]
		})
		keepAnalysisIDs = keepAnalysisIDs[:c.maxAnalyses]
	}

	keepSet := make(map[int64]bool)
	for _, id := range keepAnalysisIDs {
		keepSet[id] = true
	}

	entries, err := os.ReadDir(c.cacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read cache dir: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "analysis-") {
			continue
		}

		idStr := strings.TrimPrefix(entry.Name(), "analysis-")
		analysisID, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			continue
		}

		if !keepSet[analysisID] {
			dir := filepath.Join(c.cacheDir, entry.Name())
			if err := os.RemoveAll(dir); err != nil {
				return fmt.Errorf("remove analysis-%d cache: %w", analysisID, err)
			}
		}
	}

	return nil
}

func (c *SVGCache) DeleteAnalysis(analysisID int64) error {
	dir := c.analysisDir(analysisID)
	if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove analysis cache: %w", err)
	}
	return nil
}

func (c *SVGCache) CacheDir() string {
	return c.cacheDir
}
