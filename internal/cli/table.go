package cli

import (
	"bufio"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

const tablePadding = 2

func writeTable(out io.Writer, headers []string, rows [][]string) error {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	updateWidth := func(index int, value string) {
		if index >= colCount {
			return
		}
		displayWidth := runewidth.StringWidth(ansi.Strip(value))
		if displayWidth > widths[index] {
			widths[index] = displayWidth
		}
	}

	for idx, header := range headers {
		updateWidth(idx, header)
	}
	for _, row := range rows {
		for idx, cell := range row {
			updateWidth(idx, cell)
		}
	}

	writer := bufio.NewWriter(out)
	var writeErr error
	writeString := func(value string) {
		if writeErr != nil {
			return
		}
		_, writeErr = writer.WriteString(value)
	}
	writeRow := func(row []string) {
		if writeErr != nil {
			return
		}
		for idx := 0; idx < colCount; idx++ {
			cell := ""
			if idx < len(row) {
				cell = row[idx]
			}
			padding := max(0, widths[idx]-runewidth.StringWidth(ansi.Strip(cell)))
			writeString(cell)
			if idx < colCount-1 {
				writeString(strings.Repeat(" ", padding+tablePadding))
			}
		}
		writeString("\n")
	}

	if len(headers) > 0 {
		writeRow(headers)
	}
	for _, row := range rows {
		writeRow(row)
	}
	if writeErr != nil {
		return writeErr
	}
	return writer.Flush()
}
