package inventory

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/klauspost/compress/zlib"
)

const (
	headerV2        = "# Sphinx inventory version 2"
	projectPrefix   = "# Project: "
	versionPrefix   = "# Version: "
	compressionNote = "# The remainder of this file is compressed using zlib."
)

// Project pairs an inventory with the identity of the documentation set it
// describes.
type Project struct {
	Name      string
	Version   string
	Inventory Inventory
}

// Decode reads a version-2 inventory: four header lines followed by a
// zlib-compressed body of "name domain:type priority uri display" records.
// A URI ending in "$" abbreviates "ends with the symbol name", and a
// display name of "-" means "same as the symbol name" and is preserved
// verbatim for the resolver to interpret.
func Decode(r io.Reader) (*Project, error) {
	br := bufio.NewReader(r)
	header, err := readLine(br)
	if err != nil {
		return nil, fmt.Errorf("reading inventory header: %w", err)
	}
	if header != headerV2 {
		return nil, fmt.Errorf("unsupported inventory header %q", header)
	}
	projectLine, err := readLine(br)
	if err != nil {
		return nil, fmt.Errorf("reading project line: %w", err)
	}
	versionLine, err := readLine(br)
	if err != nil {
		return nil, fmt.Errorf("reading version line: %w", err)
	}
	if _, err := readLine(br); err != nil { // compression note
		return nil, fmt.Errorf("reading compression note: %w", err)
	}

	p := &Project{
		Name:      strings.TrimPrefix(projectLine, projectPrefix),
		Version:   strings.TrimPrefix(versionLine, versionPrefix),
		Inventory: Inventory{},
	}

	zr, err := zlib.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("opening compressed inventory body: %w", err)
	}
	defer zr.Close()

	scanner := bufio.NewScanner(zr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, objType, uri, display, ok := parseRecord(line)
		if !ok {
			return nil, fmt.Errorf("malformed inventory record %q", line)
		}
		if strings.HasSuffix(uri, "$") {
			uri = strings.TrimSuffix(uri, "$") + name
		}
		p.Inventory.Add(objType, name, Entry{
			URI:            uri,
			ProjectName:    p.Name,
			ProjectVersion: p.Version,
			DisplayName:    display,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading inventory body: %w", err)
	}
	return p, nil
}

// parseRecord splits "name domain:type priority uri display". The display
// name may itself contain spaces, and name may too: the record is anchored
// on the object-type field, the last space-separated token containing a
// colon before the priority.
func parseRecord(line string) (name, objType, uri, display string, ok bool) {
	// Records are written as: {name} {objtype} {priority} {uri} {display}.
	// Name cannot contain whitespace followed by a colon-bearing token, so
	// scan for the objtype token from the left.
	rest := line
	var nameParts []string
	for {
		fields := strings.SplitN(rest, " ", 2)
		if len(fields) < 2 {
			return "", "", "", "", false
		}
		token := fields[0]
		rest = fields[1]
		if strings.Contains(token, ":") && !strings.HasSuffix(token, ":") {
			objType = token
			break
		}
		nameParts = append(nameParts, token)
	}
	if len(nameParts) == 0 {
		return "", "", "", "", false
	}
	name = strings.Join(nameParts, " ")

	// rest = "{priority} {uri} {display...}"
	tail := strings.SplitN(rest, " ", 3)
	if len(tail) < 3 {
		return "", "", "", "", false
	}
	uri = tail[1]
	display = tail[2]
	return name, objType, uri, display, true
}

// Encode writes a project in the version-2 wire format. Records are sorted
// for reproducible output.
func Encode(w io.Writer, p *Project) error {
	header := fmt.Sprintf("%s\n%s%s\n%s%s\n%s\n",
		headerV2, projectPrefix, p.Name, versionPrefix, p.Version, compressionNote)
	if _, err := io.WriteString(w, header); err != nil {
		return fmt.Errorf("writing inventory header: %w", err)
	}
	zw := zlib.NewWriter(w)
	for _, objType := range sortedKeys(p.Inventory) {
		bucket := p.Inventory[objType]
		for _, name := range sortedKeys(bucket) {
			entry := bucket[name]
			uri := entry.URI
			if strings.HasSuffix(uri, name) {
				uri = strings.TrimSuffix(uri, name) + "$"
			}
			display := entry.DisplayName
			if display == "" || display == name {
				display = "-"
			}
			record := fmt.Sprintf("%s %s -1 %s %s\n", name, objType, uri, display)
			if _, err := io.WriteString(zw, record); err != nil {
				zw.Close()
				return fmt.Errorf("writing inventory record: %w", err)
			}
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing compressed inventory body: %w", err)
	}
	return nil
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
