package audio

import (
	"fmt"

	"github.com/ebitengine/oto/v3"
)

// outputBufferFrames keeps device latency around 50ms.
const outputBufferFrames = 2048

// Output streams an Engine to the system sound device.
type Output struct {
	otoCtx *oto.Context
	player *oto.Player
}

// Open starts streaming e to the default audio device.
func Open(e *Engine) (*Output, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: channelCount,
		Format:       oto.FormatSignedInt16LE,
	}

	otoCtx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInit, err)
	}
	<-readyChan

	player := otoCtx.NewPlayer(e)
	player.SetBufferSize(outputBufferFrames * channelCount * bitDepth)
	player.Play()

	return &Output{otoCtx: otoCtx, player: player}, nil
}

// Close stops the stream.
func (o *Output) Close() error {
	if o.player == nil {
		return nil
	}
	o.player.Pause()
	return o.player.Close()
}
