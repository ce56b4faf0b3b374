// Package events defines the inbound events a streaming avatar session emits.
//
// Event kinds are grouped by namespace:
//
//   - stream.*: media stream lifecycle
//   - avatar.*: avatar speech and transcript
//   - user.*: user turn and transcript (voice chat)
//
// Semantics used across the package:
//
//   - Partial: an append-only transcript fragment of the current turn.
//   - TurnEnded: the current speaker finished the turn; it may carry the
//     complete message or leave assembling it to the receiver.
//
// stream events
//
//   - StreamReady (stream.ready): the provider confirmed the media stream is
//     ready; carries the media stream handle when the provider attaches one.
//   - StreamDisconnected (stream.disconnected): the media stream was lost.
//
// avatar events
//
//   - AvatarTalkingStarted (avatar.talking_started)
//   - AvatarTalkingStopped (avatar.talking_stopped)
//   - AvatarTranscriptPartial (avatar.transcript_partial)
//   - AvatarTurnEnded (avatar.turn_ended)
//
// user events
//
//   - UserTurnStarted (user.turn_started): user started talking.
//   - UserTurnStopped (user.turn_stopped): user stopped talking.
//   - UserTranscriptPartial (user.transcript_partial)
//   - UserTurnEnded (user.turn_ended)
package events
