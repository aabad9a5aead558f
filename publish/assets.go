package publish

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/pdwerry/confluence-publish/confluence"
)

// uploadAssets brings the page's attachments in line with the document's
// local images.  Uploads run strictly one at a time, in filename order so
// reruns behave the same way.
//
// An attachment that already exists with the same filename and size is
// assumed to be ours from an earlier publish and skipped; a same-name
// attachment with a different size is someone else's change and aborts the
// run.
func (p *Publisher) uploadAssets(ctx context.Context, pageID string, assets map[string]string) (int, error) {
	if len(assets) == 0 {
		return 0, nil
	}

	filenames := maps.Keys(assets)
	slices.Sort(filenames)

	var bar *mpb.Bar
	var progress *mpb.Progress
	if p.Progress {
		progress = mpb.New(mpb.WithWidth(64))
		bar = progress.AddBar(int64(len(filenames)),
			mpb.PrependDecorators(
				decor.Name("attachments:", decor.WC{C: decor.DindentRight | decor.DextraSpace}),
			),
			mpb.AppendDecorators(
				decor.CountersNoUnit("(%d/%d) "),
				decor.NewPercentage("%d"),
			),
		)
	}

	uploaded := 0
	for _, filename := range filenames {
		n, err := p.uploadAsset(ctx, pageID, filename, assets[filename])
		if err != nil {
			return uploaded, &StageError{Stage: StageUpload, Target: filename, Err: err}
		}
		uploaded += n
		if bar != nil {
			bar.Increment()
		}
	}

	if progress != nil {
		progress.Wait()
	}

	return uploaded, nil
}

// uploadAsset uploads one file, returning 1 if an upload actually happened
// and 0 if the attachment was already in place.
func (p *Publisher) uploadAsset(ctx context.Context, pageID, filename, path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("publish: couldn't stat asset %s: %w", path, err)
	}

	existing, err := p.API.GetAttachment(ctx, pageID, filename)
	var notFound *confluence.NotFoundError
	switch {
	case err == nil:
		if existing.Extensions.FileSize == info.Size() {
			p.logf("Attachment %s already present, skipping.\n", filename)
			return 0, nil
		}
		return 0, &confluence.AttachmentConflictError{PageID: pageID, Filename: filename}
	case errors.As(err, &notFound):
		// good, nothing there yet
	default:
		return 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("publish: couldn't open asset %s: %w", path, err)
	}
	defer f.Close()

	if _, err := p.API.UploadAttachment(ctx, pageID, filename, f); err != nil {
		return 0, err
	}

	p.logf("Uploaded attachment %s (%d bytes).\n", filename, info.Size())
	return 1, nil
}
