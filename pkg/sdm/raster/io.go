package raster

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ReadLayer reads a single band from an ESRI ASCII grid file.  The
// band name is the file's base name without extension.  A sidecar
// .prj file, if present, provides the projection identifier.
func ReadLayer(path string) (*Layer, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defer in.Close()
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	scanner.Split(bufio.ScanWords)
	var g Grid
	g.NoData = -9999
	var haveCols, haveRows, haveX0, haveY0, haveSize bool
	for !(haveCols && haveRows && haveX0 && haveY0 && haveSize) {
		key, err := scanWord(scanner, path)
		if err != nil {
			return nil, err
		}
		val, err := scanWord(scanner, path)
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(key) {
		case "ncols":
			g.Cols, err = strconv.Atoi(val)
			haveCols = true
		case "nrows":
			g.Rows, err = strconv.Atoi(val)
			haveRows = true
		case "xllcorner":
			g.X0, err = strconv.ParseFloat(val, 64)
			haveX0 = true
		case "yllcorner":
			g.Y0, err = strconv.ParseFloat(val, 64)
			haveY0 = true
		case "cellsize":
			g.CellSize, err = strconv.ParseFloat(val, 64)
			haveSize = true
		case "nodata_value":
			g.NoData, err = strconv.ParseFloat(val, 64)
		default:
			return nil, fmt.Errorf("read %s: %w: unexpected header key %q", path, ErrCorrupt, key)
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w: bad header value %q for %s", path, ErrCorrupt, val, key)
		}
	}
	if g.Cols <= 0 || g.Rows <= 0 || g.CellSize <= 0 {
		return nil, fmt.Errorf("read %s: %w: bad grid dimensions", path, ErrCorrupt)
	}
	// The nodata_value line is optional and may follow the required
	// header keys; peek at the next word before reading cells.
	if !scanner.Scan() {
		return nil, fmt.Errorf("read %s: %w: missing cell values", path, ErrCorrupt)
	}
	first := scanner.Text()
	if strings.ToLower(first) == "nodata_value" {
		val, err := scanWord(scanner, path)
		if err != nil {
			return nil, err
		}
		if g.NoData, err = strconv.ParseFloat(val, 64); err != nil {
			return nil, fmt.Errorf("read %s: %w: bad nodata value %q", path, ErrCorrupt, val)
		}
		if first, err = scanWord(scanner, path); err != nil {
			return nil, err
		}
	}
	g.Proj = readProj(path)
	l := &Layer{Name: layerName(path), Grid: g, Data: make([]float64, g.Cols*g.Rows)}
	for i := range l.Data {
		word := first
		if i > 0 {
			var err error
			if word, err = scanWord(scanner, path); err != nil {
				return nil, err
			}
		}
		v, err := strconv.ParseFloat(word, 64)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w: bad cell value %q", path, ErrCorrupt, word)
		}
		l.Data[i] = v
	}
	return l, nil
}

// ReadStack reads one band per path and combines them into a stack.
func ReadStack(paths ...string) (*Stack, error) {
	var layers []*Layer
	for _, path := range paths {
		l, err := ReadLayer(path)
		if err != nil {
			return nil, err
		}
		layers = append(layers, l)
	}
	return NewStack(layers...)
}

// WriteLayer writes the band as an ESRI ASCII grid file, overwriting
// any existing file.  The projection identifier, if set, goes to a
// sidecar .prj file.
func WriteLayer(l *Layer, path string) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write %s: %v", path, err)
	}
	defer func() {
		if exx := out.Close(); exx != nil && err == nil {
			err = fmt.Errorf("write %s: %v", path, exx)
		}
	}()
	w := bufio.NewWriter(out)
	g := l.Grid
	fmt.Fprintf(w, "ncols %d\n", g.Cols)
	fmt.Fprintf(w, "nrows %d\n", g.Rows)
	fmt.Fprintf(w, "xllcorner %s\n", formatFloat(g.X0))
	fmt.Fprintf(w, "yllcorner %s\n", formatFloat(g.Y0))
	fmt.Fprintf(w, "cellsize %s\n", formatFloat(g.CellSize))
	fmt.Fprintf(w, "nodata_value %s\n", formatFloat(g.NoData))
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			if col > 0 {
				w.WriteByte(' ')
			}
			w.WriteString(formatFloat(l.At(col, row)))
		}
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %v", path, err)
	}
	if g.Proj != "" {
		if err := os.WriteFile(projPath(path), []byte(g.Proj+"\n"), 0666); err != nil {
			return fmt.Errorf("write %s: %v", projPath(path), err)
		}
	}
	return nil
}

func scanWord(scanner *bufio.Scanner, path string) (string, error) {
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("read %s: %v", path, err)
		}
		return "", fmt.Errorf("read %s: %w: unexpected end of file", path, ErrCorrupt)
	}
	return scanner.Text(), nil
}

func layerName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func projPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"
}

func readProj(path string) string {
	data, err := os.ReadFile(projPath(path))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
