package integration

import (
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ienet/ienet/internal/config"
	"github.com/ienet/ienet/internal/constants"
	"github.com/ienet/ienet/internal/protocol"
	"github.com/ienet/ienet/internal/testutil"
)

// login подключает клиента, проходит handshake и вычитывает стартовую
// серию сообщений.
func (s *LobbySuite) login(name string) *testutil.LobbyClient {
	s.T().Helper()
	c := testutil.DialLobby(s.T(), s.addr)
	c.Login(name)
	s.drainStats(c)
	return c
}

// drainStats вычитывает команды до первого /syncstats: им завершается
// каждая серия сообщений, меняющая счётчики.
func (s *LobbySuite) drainStats(c *testutil.LobbyClient) {
	s.T().Helper()
	for {
		if strings.HasPrefix(c.ReadCommand(), "/syncstats ") {
			return
		}
	}
}

// TestFirstLoginSequence проверяет весь путь первого клиента: ident
// reply, welcome и стартовые команды, байт в байт.
func (s *LobbySuite) TestFirstLoginSequence() {
	c := testutil.DialLobby(s.T(), s.addr)

	c.SendIdent(constants.AllowedGameVersion, "en")
	r := protocol.NewReader(c.ReadFrame())
	status, err := r.ReadUint32()
	s.Require().NoError(err)
	s.Require().EqualValues(0, status)
	blobLen, err := r.ReadUint32()
	s.Require().NoError(err)
	s.EqualValues(16, blobLen)
	for _i := 0; _i < 4; _i++ {
		salt, err := r.ReadUint32()
		s.Require().NoError(err)
		s.EqualValues(constants.IdentSalt, salt)
	}
	s.Zero(r.Remaining())

	c.SendLogin("newcomer", "pw")
	r = protocol.NewReader(c.ReadFrame())
	status, err = r.ReadUint32()
	s.Require().NoError(err)
	s.Require().EqualValues(0, status)
	content, err := r.ReadLPBytes()
	s.Require().NoError(err)

	cfg := config.DefaultLobby()
	cr := protocol.NewReader(content)
	ident, err := cr.ReadLPString()
	s.Require().NoError(err)
	s.Equal(cfg.ServerName, ident)
	welcome, err := cr.ReadLPString()
	s.Require().NoError(err)
	s.Equal(cfg.WelcomeMessage, welcome)

	s.Equal(`/$channel "General" "0"`, c.ReadCommand())
	s.Equal(`/join "General"`, c.ReadCommand())
	s.Equal(`/syncstats "1" "1" "1" "0" "0" "" "0"`, c.ReadCommand())
}

func (s *LobbySuite) TestSecondLoginSeesFirst() {
	foo := s.login("foo")

	bar := testutil.DialLobby(s.T(), s.addr)
	bar.Login("bar")
	s.Equal(`/$channel "General" "0"`, bar.ReadCommand())
	s.Equal(`/join "General"`, bar.ReadCommand())
	s.Equal(`$user "foo" "0"`, bar.ReadCommand())
	s.Equal(`/syncstats "2" "2" "1" "0" "0" "" "0"`, bar.ReadCommand())

	s.Equal(`/$user "bar" "0"`, foo.ReadCommand())
	s.Equal(`/syncstats "2" "2" "1" "0" "0" "" "0"`, foo.ReadCommand())
}

// TestWrongVersionCanRetry: отказ не рвёт соединение, клиент может
// прислать ident повторно.
func (s *LobbySuite) TestWrongVersionCanRetry() {
	c := testutil.DialLobby(s.T(), s.addr)

	c.SendIdent(uuid.New(), "en")
	r := protocol.NewReader(c.ReadFrame())
	status, err := r.ReadUint32()
	s.Require().NoError(err)
	s.EqualValues(2, status)
	reason, err := r.ReadLPString()
	s.Require().NoError(err)
	s.Equal(constants.RejectWrongVersion, reason)

	c.SendIdent(constants.AllowedGameVersion, "en")
	r = protocol.NewReader(c.ReadFrame())
	status, err = r.ReadUint32()
	s.Require().NoError(err)
	s.EqualValues(0, status)
}

func (s *LobbySuite) TestBadUsernameCanRetry() {
	c := testutil.DialLobby(s.T(), s.addr)
	c.SendIdent(constants.AllowedGameVersion, "en")
	_ = c.ReadFrame()

	c.SendLogin("has space", "pw")
	r := protocol.NewReader(c.ReadFrame())
	status, err := r.ReadUint32()
	s.Require().NoError(err)
	s.EqualValues(2, status)
	reason, err := r.ReadLPString()
	s.Require().NoError(err)
	s.Equal(constants.RejectInvalidUsername, reason)

	c.SendLogin("fine", "pw")
	r = protocol.NewReader(c.ReadFrame())
	status, err = r.ReadUint32()
	s.Require().NoError(err)
	s.EqualValues(0, status, "valid retry must be welcomed")
}

func (s *LobbySuite) TestDuplicateUsernameConnectionDropped() {
	eve := s.login("eve")

	dup := testutil.DialLobby(s.T(), s.addr)
	dup.SendIdent(constants.AllowedGameVersion, "en")
	_ = dup.ReadFrame()
	dup.SendLogin("eve", "pw")
	dup.ExpectClosed()

	// первый клиент не пострадал
	eve.SendCommand(`send "still here"`)
	s.Equal(`/send "eve" "still here"`, eve.ReadCommand())
}

func (s *LobbySuite) TestChannelSwitchBroadcasts() {
	alice := s.login("alice")
	bob := s.login("bob")
	s.Equal(`/$user "bob" "0"`, alice.ReadCommand())
	s.drainStats(alice)

	bob.SendCommand(`join "Strategy"`)
	s.Equal(`/$channel "Strategy" "0"`, bob.ReadCommand())
	s.Equal(`/join "Strategy"`, bob.ReadCommand())
	s.Equal(`/syncstats "2" "2" "2" "0" "0" "" "0"`, bob.ReadCommand())

	s.Equal(`/$channel "Strategy" "0"`, alice.ReadCommand())
	s.Equal(`/&user "bob" "#Strategy"`, alice.ReadCommand())
	s.Equal(`/syncstats "2" "2" "2" "0" "0" "" "0"`, alice.ReadCommand())
}

func (s *LobbySuite) TestPublicChatBothSee() {
	ann := s.login("ann")
	ben := s.login("ben")
	s.Equal(`/$user "ben" "0"`, ann.ReadCommand())
	s.drainStats(ann)

	ann.SendCommand(`send "hello all"`)
	want := `/send "ann" "hello all"`
	s.Equal(want, ann.ReadCommand())
	s.Equal(want, ben.ReadCommand())
}

func (s *LobbySuite) TestPrivateMessageFlow() {
	alice := s.login("alice")
	bob := s.login("bob")
	s.Equal(`/$user "bob" "0"`, alice.ReadCommand())
	s.drainStats(alice)

	alice.SendCommand(`msg "bob" "secret plans"`)
	s.Equal(`/msgc "bob" "secret plans"`, alice.ReadCommand())
	s.Equal(`/msg "#General" "alice" "bob" "secret plans"`, bob.ReadCommand())

	alice.SendCommand(`msg "carol" "hello"`)
	s.Equal(`/error "User does not exist"`, alice.ReadCommand())
}

// TestGameHostingFlow прогоняет весь цикл: заявка, подтверждение,
// пароль, заход по токену и чат внутри игры.
func (s *LobbySuite) TestGameHostingFlow() {
	host := s.login("gamer1")
	joiner := s.login("gamer2")
	s.Equal(`/$user "gamer2" "0"`, host.ReadCommand())
	s.drainStats(host)

	host.SendCommand(`plays "v" "Skirmish" "secret"`)
	reply := host.ReadCommand()
	raw, err := protocol.ParseRawCommand([]byte(reply))
	s.Require().NoError(err)
	s.Require().Equal("plays", raw.Verb)
	s.Require().Len(raw.Params, 5)
	s.Equal("Skirmish", string(raw.Params[1]))
	s.Equal("secret", string(raw.Params[2]))
	token := string(raw.Params[4])
	_, err = uuid.Parse(token)
	s.Require().NoError(err, "invite token must be a GUID")

	stats := `/syncstats "2" "2" "1" "1" "0" "" "0"`
	s.Equal(stats, host.ReadCommand())
	s.Equal(stats, joiner.ReadCommand())

	// подтверждение открывает игру и перемещает хоста
	host.SendCommand(`plays "v" "Skirmish" "` + token + `"`)
	wantOpen := `/$play "Skirmish" "0" "0" "0" "` + token + `" "0"`
	s.Equal(wantOpen, host.ReadCommand())
	s.Equal(`/syncstats "2" "2" "1" "1" "0" "" "1"`, host.ReadCommand())
	s.Equal(wantOpen, joiner.ReadCommand())
	s.Equal(`/&user "gamer1" "$Skirmish"`, joiner.ReadCommand())
	s.Equal(`/syncstats "2" "2" "1" "1" "0" "" "1"`, joiner.ReadCommand())

	// по паролю сервер выдаёт адрес хоста
	joiner.SendCommand(`playc "Skirmish" "secret"`)
	s.Equal(`/playc "`+constants.AllowedGameVersion.String()+`" "Skirmish" "secret" "0x0100007f" "`+
		token+`" "127.0.0.1"`, joiner.ReadCommand())

	// по токену joiner занимает место, General пустеет
	joiner.SendCommand(`playc "Skirmish" "` + token + `"`)
	s.Equal(`/$user "gamer2" "0" "#General"`, host.ReadCommand())
	s.Equal(`/&channel "General"`, host.ReadCommand())
	s.Equal(`/syncstats "2" "2" "0" "1" "0" "" "1"`, host.ReadCommand())
	s.Equal(`/&channel "General"`, joiner.ReadCommand())
	s.Equal(`/syncstats "2" "2" "0" "1" "0" "" "1"`, joiner.ReadCommand())

	host.SendCommand(`send "glhf"`)
	s.Equal(`/send "gamer1" "glhf"`, host.ReadCommand())
	s.Equal(`/send "gamer1" "glhf"`, joiner.ReadCommand())
}

// TestRequestedGameExpiresQuickly: неподтверждённая заявка снимается
// сторожем без /&play, меняются только счётчики.
func (s *LobbySuite) TestRequestedGameExpiresQuickly() {
	host := s.login("solo")

	host.SendCommand(`plays "v" "Fleeting" "pw"`)
	reply := host.ReadCommand()
	s.Require().True(strings.HasPrefix(reply, "/plays "), reply)
	s.Equal(`/syncstats "1" "1" "1" "1" "0" "" "0"`, host.ReadCommand())

	s.Equal(`/syncstats "1" "1" "1" "0" "0" "" "0"`, host.ReadCommand())
}

func (s *LobbySuite) TestServerShutdownDisconnectsClients() {
	c := s.login("leaver")

	s.cancel()
	c.ExpectClosed()

	testutil.WaitForCleanup(s.T(), func() bool {
		conn, err := net.DialTimeout("tcp", s.addr, 50*time.Millisecond)
		if err != nil {
			return true
		}
		_ = conn.Close()
		return false
	}, 5*time.Second)
}
