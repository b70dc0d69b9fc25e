package model

// 미팅 예정 시각 파싱 레이아웃 (date + " " + time)
const ScheduleLayout = "2006-01-02 15:04"

// JoinRequestStatus 입장 요청 상태
type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestAccepted JoinRequestStatus = "accepted"
	JoinRequestRejected JoinRequestStatus = "rejected"
)

// String 메서드
func (s JoinRequestStatus) String() string {
	return string(s)
}

// JoinRequestAction 호스트 응답 액션
type JoinRequestAction string

const (
	ActionAccept JoinRequestAction = "accept"
	ActionReject JoinRequestAction = "reject"
)

// Status 액션이 만드는 상태 (알 수 없는 액션은 false)
func (a JoinRequestAction) Status() (JoinRequestStatus, bool) {
	switch a {
	case ActionAccept:
		return JoinRequestAccepted, true
	case ActionReject:
		return JoinRequestRejected, true
	default:
		return "", false
	}
}

// 메시지 발신자 기본값
const DefaultSender = "User"

// 같이 보기 볼륨 범위
const (
	MinVolume     = 0
	MaxVolume     = 100
	DefaultVolume = 100
)
