package command

import (
	"fmt"
	"io"
	"net"

	"github.com/fatih/color"
)

// PrintBanner writes the three startup lines. Colors are applied only
// when stdout is a terminal.
func PrintBanner(w io.Writer, host, port string) {
	bold := color.New(color.Bold)
	link := color.New(color.FgCyan, color.Underline)
	faint := color.New(color.Faint)

	url := "https://" + net.JoinHostPort(host, port)

	fmt.Fprintln(w, bold.Sprintf("Serving HTTPS on port %s", port))
	fmt.Fprintln(w, "Access your app at: "+link.Sprint(url))
	fmt.Fprintln(w, faint.Sprint("(You'll need to accept the self-signed certificate warning)"))
}
