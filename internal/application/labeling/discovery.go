package labeling

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andrescamacho/floodfill-go/internal/domain/batch"
	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
)

const (
	labelsSuffix = "-floodfill_ids"
	datesSuffix  = "-floodfill_burndates"
)

// DiscoverJobs expands input into job specs. A file yields one job; a
// directory is searched recursively for files ending in ext, in lexical
// path order. Outputs are written to outputFolder as <stem>-floodfill_ids<ext>
// and, when saveBurnDates is set, <stem>-floodfill_burndates<ext>.
// Files that are themselves outputs are skipped.
func DiscoverJobs(input, outputFolder, ext string, saveBurnDates bool) ([]batch.JobSpec, error) {
	if input == "" {
		return nil, shared.NewConfigError("input", "must not be empty")
	}
	if outputFolder == "" {
		return nil, shared.NewConfigError("output folder", "must not be empty")
	}
	if !strings.HasPrefix(ext, ".") {
		return nil, shared.NewConfigError("file extension", fmt.Sprintf("%q must start with a dot", ext))
	}

	info, err := os.Stat(input)
	if err != nil {
		return nil, shared.NewConfigError("input", err.Error())
	}

	var files []string
	if info.IsDir() {
		files, err = findFilesByExtension(input, ext)
		if err != nil {
			return nil, fmt.Errorf("failed to search %s: %w", input, err)
		}
	} else {
		files = []string{input}
	}

	specs := make([]batch.JobSpec, 0, len(files))
	for _, file := range files {
		specs = append(specs, JobSpecFor(file, outputFolder, saveBurnDates))
	}
	return specs, nil
}

// JobSpecFor names the outputs of one input file
func JobSpecFor(file, outputFolder string, saveBurnDates bool) batch.JobSpec {
	ext := filepath.Ext(file)
	stem := strings.TrimSuffix(filepath.Base(file), ext)

	spec := batch.JobSpec{
		Input:  file,
		Output: filepath.Join(outputFolder, stem+labelsSuffix+ext),
	}
	if saveBurnDates {
		spec.DatesOutput = filepath.Join(outputFolder, stem+datesSuffix+ext)
	}
	return spec
}

func findFilesByExtension(root, ext string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ext) {
			return nil
		}
		stem := strings.TrimSuffix(d.Name(), ext)
		if strings.HasSuffix(stem, labelsSuffix) || strings.HasSuffix(stem, datesSuffix) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
