package cli

import (
	"context"
	"fmt"
)

// ServerInfo prints the limits the server advertises.
func (a *App) ServerInfo(ctx context.Context) error {
	info, err := a.anonClient().ServerInfo(ctx)
	if err != nil {
		return err
	}

	if info.SiteName != "" {
		fmt.Fprintf(a.out, "site:               %s\n", info.SiteName)
	}
	if info.URL != "" {
		fmt.Fprintf(a.out, "url:                %s\n", info.URL)
	}
	fmt.Fprintf(a.out, "upload chunk size:  %d\n", info.UploadChunkSize)
	if info.MaxTransferSize > 0 {
		fmt.Fprintf(a.out, "max transfer size:  %d\n", info.MaxTransferSize)
	}
	if info.MaxTransferFiles > 0 {
		fmt.Fprintf(a.out, "max transfer files: %d\n", info.MaxTransferFiles)
	}
	return nil
}
